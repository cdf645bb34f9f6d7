package server

import (
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var ServerStatus string = "unknown"

// BackendServer builds the http.Server serving the full route surface with
// logging and database injection around every handler.
func BackendServer(
	DB *gorm.DB,
	deps RouterDeps,
	host string,
	port int64,
	ssl bool,
) (*http.Server, string) {
	router := BackendRouting(deps)

	protocol := "http"
	if ssl {
		protocol = "https"
	}
	fullHost := fmt.Sprintf("%s://%s:%d", protocol, host, port)

	stack := CreateStack(Logging, Database(DB))

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: stack(router),
	}

	return server, fullHost
}
