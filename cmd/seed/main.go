// Command seed creates the database schema and loads a small demo
// dataset: an admin account, one room with a seat grid, the ticket
// catalog and a pair of upcoming showings.  It is idempotent enough
// for development use; run it against an empty database.
package main

import (
    "context"
    "database/sql"
    "fmt"
    "log"
    "time"

    "github.com/joho/godotenv"

    "cinebook/internal/config"
    "cinebook/internal/database"
    "cinebook/internal/model"
    "cinebook/internal/repository"
)

var ddl = []string{
    `CREATE TABLE IF NOT EXISTS users (
        id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        email VARCHAR(255) NOT NULL UNIQUE,
        password_hash VARCHAR(255) NOT NULL,
        role ENUM('CUSTOMER','ADMIN') NOT NULL DEFAULT 'CUSTOMER',
        is_active TINYINT(1) NOT NULL DEFAULT 1,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS refresh_tokens (
        id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        user_id BIGINT UNSIGNED NOT NULL,
        session_key CHAR(36) NOT NULL,
        token_hash CHAR(64) NOT NULL UNIQUE,
        expires_at DATETIME NOT NULL,
        revoked_at DATETIME NULL,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS rooms (
        id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        name VARCHAR(100) NOT NULL,
        is_active TINYINT(1) NOT NULL DEFAULT 1,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS seats (
        id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        room_id BIGINT UNSIGNED NOT NULL,
        row_label VARCHAR(8) NOT NULL,
        col_number INT UNSIGNED NOT NULL,
        category ENUM('STANDARD','VIP','ACCESSIBLE') NOT NULL DEFAULT 'STANDARD',
        is_active TINYINT(1) NOT NULL DEFAULT 1,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        UNIQUE KEY uq_seat (room_id, row_label, col_number),
        FOREIGN KEY (room_id) REFERENCES rooms(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS ticket_types (
        id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        code VARCHAR(32) NOT NULL UNIQUE,
        name VARCHAR(100) NOT NULL,
        price_cents INT UNSIGNED NOT NULL,
        is_active TINYINT(1) NOT NULL DEFAULT 1,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS showings (
        id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        room_id BIGINT UNSIGNED NOT NULL,
        movie_title VARCHAR(255) NOT NULL,
        starts_at DATETIME NOT NULL,
        language VARCHAR(16) NOT NULL DEFAULT 'EN',
        status ENUM('SCHEDULED','SOLD_OUT','CANCELLED') NOT NULL DEFAULT 'SCHEDULED',
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        FOREIGN KEY (room_id) REFERENCES rooms(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS reservations (
        id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        user_id BIGINT UNSIGNED NOT NULL,
        showing_id BIGINT UNSIGNED NOT NULL,
        status ENUM('CONFIRMED','CANCELLED') NOT NULL DEFAULT 'CONFIRMED',
        total_amount_cents INT UNSIGNED NOT NULL,
        qr_payload VARBINARY(128) NULL,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users(id),
        FOREIGN KEY (showing_id) REFERENCES showings(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS reservation_details (
        id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        reservation_id BIGINT UNSIGNED NOT NULL,
        seat_id BIGINT UNSIGNED NOT NULL,
        ticket_type_id BIGINT UNSIGNED NOT NULL,
        price_cents INT UNSIGNED NOT NULL,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (reservation_id) REFERENCES reservations(id) ON DELETE CASCADE,
        FOREIGN KEY (seat_id) REFERENCES seats(id),
        FOREIGN KEY (ticket_type_id) REFERENCES ticket_types(id)
    ) ENGINE=InnoDB`,
}

func main() {
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
    defer cancel()

    for _, stmt := range ddl {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            log.Fatalf("seed: ddl failed: %v", err)
        }
    }
    log.Println("seed: schema ready")

    if err := seedData(ctx, db); err != nil {
        log.Fatalf("seed: %v", err)
    }
    log.Println("seed: demo data loaded")
}

func seedData(ctx context.Context, db *sql.DB) error {
    var rooms int
    if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms").Scan(&rooms); err != nil {
        return err
    }
    if rooms > 0 {
        log.Println("seed: rooms already present, skipping demo data")
        return nil
    }

    roomRepo := repository.NewRoomRepo(db)
    showingRepo := repository.NewShowingRepo(db)
    userRepo := repository.NewUserRepo(db)

    // A staff account for pulling showings from sale.  Change the
    // password before exposing the service anywhere real.
    if _, err := userRepo.Create(ctx, "admin@cinebook.local", "admin-changeme", model.RoleAdmin, 10); err != nil {
        return fmt.Errorf("create admin user: %w", err)
    }

    room := &model.Room{Name: "Screen 1", IsActive: true}
    if err := roomRepo.Create(ctx, room); err != nil {
        return fmt.Errorf("create room: %w", err)
    }

    // 8 rows x 10 seats; the back row is VIP, the front corners are
    // accessible spots.
    seats := make([]model.Seat, 0, 80)
    for row := 0; row < 8; row++ {
        label := string(rune('A' + row))
        for col := 1; col <= 10; col++ {
            cat := model.SeatStandard
            if row == 7 {
                cat = model.SeatVIP
            }
            if row == 0 && (col == 1 || col == 10) {
                cat = model.SeatAccessible
            }
            seats = append(seats, model.Seat{
                RoomID:    room.ID,
                RowLabel:  label,
                ColNumber: uint32(col),
                Category:  cat,
                IsActive:  true,
            })
        }
    }
    if err := roomRepo.CreateSeatsBulk(ctx, seats); err != nil {
        return fmt.Errorf("create seats: %w", err)
    }

    // Ticket catalog.  The engine only reads these rows.
    for _, t := range []struct {
        code, name string
        cents      uint32
    }{
        {"ADULT", "Adult", 1400},
        {"CHILD", "Child", 900},
        {"SENIOR", "Senior", 1100},
    } {
        if _, err := db.ExecContext(ctx,
            "INSERT INTO ticket_types (code, name, price_cents) VALUES (?,?,?)",
            t.code, t.name, t.cents); err != nil {
            return fmt.Errorf("create ticket type %s: %w", t.code, err)
        }
    }

    base := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
    for i, title := range []string{"Arrival", "Dune: Part Two"} {
        s := &model.Showing{
            RoomID:     room.ID,
            MovieTitle: title,
            StartsAt:   base.Add(time.Duration(i*3) * time.Hour),
            Language:   "EN",
            Status:     model.ShowingScheduled,
        }
        if err := showingRepo.Create(ctx, s); err != nil {
            return fmt.Errorf("create showing %q: %w", title, err)
        }
    }
    return nil
}
