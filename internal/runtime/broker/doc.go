// Package broker implements the registration and lifecycle core of the
// message broker: the tree MessageBroker -> Service -> Destination ->
// ServiceAdapter, the referential checks that keep it consistent and the
// cascading start/stop and managed-flag rules across it.
//
// Ownership flows strictly downward. Back-references (destination to service,
// service to broker, adapter to destination) are plain pointers used for
// navigation and are cleared when a child is detached.
//
// Configuration errors are reported as *errors.ConfigurationError values with
// stable numeric codes.
package broker
