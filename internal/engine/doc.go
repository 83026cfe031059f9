// Package engine contains the session state machines for the velada.
//
// ARCHITECTURAL RULE: all mutation is funneled through the Engine's API and
// runs on one logical event-processing thread. Timed advances are armed
// through the Scheduler and return cancellable handles; a torn-down step
// must never receive a stale timer fire.
package engine
