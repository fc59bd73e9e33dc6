package daemon

import "net/http"

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.Health)
	mux.HandleFunc("/metrics", a.Metrics)
	mux.HandleFunc("/v1/state", a.State)
	mux.HandleFunc("/v1/pill", a.Pill)
	mux.HandleFunc("/v1/update", a.Update)
	mux.HandleFunc("/v1/messages", a.Messages)
	mux.HandleFunc("/v1/messages/", a.MessageByChannel)
	mux.HandleFunc("/v1/tray/menu", a.TrayMenu)
	mux.HandleFunc("/v1/tray/actions/", a.TrayAction)
	mux.HandleFunc("/v1/events", a.Events)
	mux.HandleFunc("/v1/shell", a.ShellSocket)
	mux.HandleFunc("/v1/shutdown", a.ShutdownDaemon)
}
