// Package server hosts the Fiber HTTP service and the request pipeline that
// wraps the ordered route table. The pipeline assigns a request ID, times the
// request, runs the dispatcher behind a recover middleware and is the single
// place where handler errors become HTTP statuses: auth.ErrUnauthorized turns
// into 401, ErrInvalidBody into 400, ErrNotFound (or no matching route) into
// 404 and anything else into 500. Every response body produced here is the
// fixed {status, message} envelope, so internal error text never leaks.
package server
