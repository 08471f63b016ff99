package interfaces

// Service is an interface exposed by the daemon to the outside, started
// after the application services and stopped before them.
type Service interface {
	Start() error
	Stop()
}
