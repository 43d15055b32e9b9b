// Package notifications announces committed reports and finished imports
// via ntfy.
//
// The ntfy implementation posts to the topic URL configured in config.toml
// and degrades to a no-op when no topic is set. Callers depend only on the
// Service interface and treat delivery failures as warnings.
package notifications
