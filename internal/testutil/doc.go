// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing sessions and generation parameters
// and when asserting on progress events. They are not intended for
// production usage.
package testutil
