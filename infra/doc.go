// Package infra contains technical adapters: the CSV table store, the MQTT
// run notifier, metrics exporters and Sentry monitoring. These packages
// depend only on the interfaces defined in the core packages.
package infra
