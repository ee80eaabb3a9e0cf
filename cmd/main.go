package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FunerariaCristoRey/api-contratos/internal/abono"
	"github.com/FunerariaCristoRey/api-contratos/internal/config"
	"github.com/FunerariaCristoRey/api-contratos/internal/contrato"
	"github.com/FunerariaCristoRey/api-contratos/internal/espejo"
	"github.com/FunerariaCristoRey/api-contratos/internal/middleware"
	"github.com/FunerariaCristoRey/api-contratos/internal/platform/logger"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error de configuración:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Entorno)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error al iniciar el logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	repo := contrato.NewRepository(cfg.ArchivoDB, cfg.DirBackup, contrato.ConLogger(log))
	if err := repo.Inicializar(); err != nil {
		log.Fatal("no se pudo inicializar el documento", "archivo", cfg.ArchivoDB, "error", err)
	}

	// Handlers
	contratoHandler := contrato.NewHandler(repo)
	abonoHandler := abono.NewHandler(repo)

	// Router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))

	r.HandleFunc("/", contrato.Bienvenida).Methods("GET")

	// Rutas de contratos
	r.HandleFunc("/contratos", contratoHandler.CrearContrato).Methods("POST")
	r.HandleFunc("/contratos", contratoHandler.ListarContratos).Methods("GET")
	r.HandleFunc("/contratos/{id}", contratoHandler.BuscarPorID).Methods("GET")
	r.HandleFunc("/contratos/{id}", contratoHandler.EditarContrato).Methods("PATCH")
	r.HandleFunc("/contratos/{id}/estado", contratoHandler.CambiarEstado).Methods("PUT")

	// Rutas de abonos
	r.HandleFunc("/contratos/{id}/abonos", abonoHandler.Registrar).Methods("POST")
	r.HandleFunc("/abonos", abonoHandler.Listar).Methods("GET")
	r.HandleFunc("/abonos/export.csv", abonoHandler.ExportarCSV).Methods("GET")

	// Respaldo manual
	r.HandleFunc("/backup", contratoHandler.Backup).Methods("POST")

	// Réplica relacional opcional
	if cfg.EspejoDSN != "" {
		db, err := espejo.Abrir(cfg.EspejoDSN)
		if err != nil {
			log.Fatal("no se pudo abrir la réplica", "error", err)
		}
		esp, err := espejo.New(db, log)
		if err != nil {
			log.Fatal("no se pudo preparar la réplica", "error", err)
		}
		if doc, err := repo.CargarTodo(); err != nil {
			log.Warn("réplica sin sincronizar al arrancar", "error", err)
		} else if _, err := esp.Sincronizar(doc); err != nil {
			log.Warn("réplica sin sincronizar al arrancar", "error", err)
		}
		r.HandleFunc("/espejo/sincronizar", espejo.NewHandler(repo, esp).Sincronizar).Methods("POST")
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.OrigenesCORS,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Puerto),
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("servidor escuchando", "addr", srv.Addr, "archivo", cfg.ArchivoDB, "backups", cfg.DirBackup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("error del servidor", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("cierre del servidor", "error", err)
	}
}
