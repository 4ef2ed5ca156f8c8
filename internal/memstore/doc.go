// Package memstore holds process-local implementations of the store
// interfaces. They back STORE=memory runs and the tests; state is lost on
// exit.
package memstore
