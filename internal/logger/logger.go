// ABOUTME: Process-wide diagnostic sink that fans log calls out to attached backends.
// ABOUTME: Backends are charmbracelet/log loggers for the console and per-run log files.
package logger

import "sync"

// Instance defines the interface for logging backends.
type Instance interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
}

// Logger holds multiple logging backends and dispatches log calls to all of them.
type Logger struct {
	mu        sync.RWMutex
	instances []Instance
}

var singleton = &Logger{}

// Init replaces the configured backends. Call once at startup, before any run.
func Init(instances ...Instance) {
	singleton.mu.Lock()
	defer singleton.mu.Unlock()
	singleton.instances = append([]Instance(nil), instances...)
}

// Attach adds backends for the duration of a run. The returned func detaches them.
func Attach(instances ...Instance) (detach func()) {
	singleton.mu.Lock()
	singleton.instances = append(singleton.instances, instances...)
	singleton.mu.Unlock()

	return func() {
		singleton.mu.Lock()
		defer singleton.mu.Unlock()
		kept := singleton.instances[:0]
		for _, existing := range singleton.instances {
			if !contains(instances, existing) {
				kept = append(kept, existing)
			}
		}
		singleton.instances = kept
	}
}

func contains(list []Instance, target Instance) bool {
	for _, i := range list {
		if i == target {
			return true
		}
	}
	return false
}

func each(fn func(Instance)) {
	singleton.mu.RLock()
	defer singleton.mu.RUnlock()
	for _, instance := range singleton.instances {
		fn(instance)
	}
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	each(func(i Instance) { i.Debug(message, keyvals...) })
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	each(func(i Instance) { i.Info(message, keyvals...) })
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	each(func(i Instance) { i.Warn(message, keyvals...) })
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	each(func(i Instance) { i.Error(message, keyvals...) })
}
