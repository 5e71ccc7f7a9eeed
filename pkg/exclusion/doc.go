// Package exclusion tracks the screen names already exported by earlier
// runs. The set is loaded once at the start of a run, extended with every
// account the run saw, and written back atomically at the end.
package exclusion
