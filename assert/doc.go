/*
Package assert provides runtime assertion support for expressing complex validation constraints in a user-friendly way.

There are a few patterns that are supported:
  - Collecting many possible errors into one, optionally wrapped with a sentinel error.
  - Assertions that panic if they are violated.
  - Removal of assertions with a build flag to maintain runtime performance.

To turn off assertions build with the 'noassert' flag.
Code that reports contract violations with [NoError] should still return the error, so callers built with 'noassert' can observe it.
For temporary changes, the Disable and Enable functions are also provided, but these should likely not be used in production code.
*/
package assert
