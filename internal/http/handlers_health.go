package httpx

import "net/http"

// healthStatus is what load balancer probes poll; it carries the service
// name so a misrouted check shows up in the probe logs.
type healthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, healthStatus{Status: "ok", Service: "featureset-api"})
}
