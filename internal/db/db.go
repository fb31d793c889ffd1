package db

import (
	"log"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Connect opens the application store (conversations, jobs).
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return gdb
}

// Pool hands out one gorm connection per analyzed database.
// Connections are opened lazily and reused across requests.
type Pool struct {
	mu    sync.Mutex
	conns map[string]*gorm.DB
	dsnFn func(database string) string
}

func NewPool(dsnFn func(database string) string) *Pool {
	return &Pool{conns: make(map[string]*gorm.DB), dsnFn: dsnFn}
}

func (p *Pool) Get(database string) (*gorm.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gdb, ok := p.conns[database]; ok {
		return gdb, nil
	}

	gdb, err := gorm.Open(mysql.Open(p.dsnFn(database)), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	p.conns[database] = gdb
	return gdb, nil
}
