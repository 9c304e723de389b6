package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HomieRX/schedule-core/internal/api"
	"github.com/HomieRX/schedule-core/internal/config"
	"github.com/HomieRX/schedule-core/internal/db"
	"github.com/HomieRX/schedule-core/internal/model"
	"github.com/HomieRX/schedule-core/internal/service"
)

func main() {
	// 1. Загружаем конфиг из env.
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}
	httpCfg := config.LoadHTTPConfig()

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 4. Сервисы ядра планирования поверх общей сериализации по подрядчику.
	locks := service.NewContractorLocks()
	contractorSvc := service.NewContractorService(gormDB)
	slotSvc := service.NewSlotService(gormDB, locks)
	schedulerSvc := service.NewSchedulerService(gormDB, locks)
	detectorSvc := service.NewDetectorService(gormDB, locks)
	resolverSvc := service.NewResolverService(gormDB, schedulerSvc, slotSvc)
	auditSvc := service.NewAuditService(gormDB)

	// 5. HTTP-поверхность.
	handler := api.NewHandler(contractorSvc, slotSvc, schedulerSvc, detectorSvc, resolverSvc, auditSvc)
	router := api.NewRouter(handler)

	srv := &http.Server{
		Addr:    httpCfg.Addr,
		Handler: router,
	}

	log.Printf("schedule core listening on %s", httpCfg.Addr)

	// 6. Запускаем сервер в горутине.
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// 7. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down http server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
