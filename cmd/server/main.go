package main // entry point

import (
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "cinebook/internal/booking"
    "cinebook/internal/config"
    "cinebook/internal/database"
    "cinebook/internal/handler"
    appmw "cinebook/internal/middleware"
    "cinebook/internal/queue"
    "cinebook/internal/repository"
    "cinebook/internal/router"
    "cinebook/internal/stage"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    showings := repository.NewShowingRepo(db)
    rooms := repository.NewRoomRepo(db)
    tickets := repository.NewTicketRepo(db)
    reservations := repository.NewReservationRepo(db)
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)

    // Redis backs both the rate limiter and, when available, the staging
    // store.  Without Redis the staging store falls back to the
    // in-process arena and rate limiting is disabled.
    rdb := config.NewRedisClient()

    stageTTL := time.Duration(cfg.StageTTLMin) * time.Minute
    resTTL := time.Duration(cfg.StageResTTLMin) * time.Minute
    var stageStore stage.Store
    if rdb != nil {
        stageStore = stage.NewRedisStore(rdb, stageTTL, resTTL)
        log.Printf("stage: using redis store (ttl=%s)", stageTTL)
    } else {
        mem := stage.NewMemoryStore(stageTTL, resTTL, time.Minute)
        defer mem.Stop()
        stageStore = mem
        log.Printf("stage: using in-memory store (ttl=%s)", stageTTL)
    }

    engine := booking.NewEngine(showings, rooms, tickets, reservations, stageStore, []byte(cfg.QRSecret))

    e := echo.New()
    e.HideBanner = true
    e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
    router.RegisterBrowse(e, handler.NewBrowseHandler(showings, tickets, engine))
    router.RegisterBooking(e, handler.NewBookingHandler(engine, reservations, stageStore, cfg.AMQPURL), cfg.JWTSecret)

    if cfg.AMQPURL != "" {
        go func() {
            if err := queue.StartReservationConsumer(cfg.AMQPURL); err != nil {
                log.Printf("reservation-consumer stopped: %v", err)
            }
        }()
    }

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
