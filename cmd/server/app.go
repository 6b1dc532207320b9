package main

import (
	"net/http"

	"github.com/diewo77/fawater/internal/config"
	"github.com/diewo77/fawater/internal/server"
	"github.com/diewo77/fawater/internal/services"
	"gorm.io/gorm"
)

// App is the main application handler; it owns the services shared by the
// HTTP routes and the maintenance commands.
type App struct {
	handler  http.Handler
	Services server.Services
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, cfg config.Config) *App {
	svc := server.NewServices(db)
	return &App{
		handler:  server.NewWithServices(db, cfg, svc),
		Services: svc,
	}
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Seeder loads sample data through the same services as the API.
func (a *App) Seeder() *services.Seeder {
	return &services.Seeder{Customers: a.Services.Customers, Invoices: a.Services.Invoices}
}
