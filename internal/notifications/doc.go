// Package notifications delivers publish run events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The publisher depends only on the small Service interface, so
// alternative transports can be added without touching run logic.
package notifications
