// Package health reports credential pool health for the gateway's
// health endpoint. The endpoint returns 503 when no credential can
// serve traffic, so load balancers stop routing to a drained instance.
package health
