package database

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupDatabase(
	dbBackend string,
	dbPath string,
	debug bool,
) *gorm.DB {
	var dialector gorm.Dialector

	switch dbBackend {
	case "sqlite":
		dialector = sqlite.Open(dbPath)
	case "postgres":
		dialector = postgres.Open(dbPath)
	default:
		panic(fmt.Sprintf("Unsupported database backend: %s", dbBackend))
	}

	config := &gorm.Config{}
	if !debug {
		config.Logger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	stmt := &gorm.Statement{DB: db}
	if debug {
		for i, table := range Tables {
			stmt.Parse(table)
			log.Println(fmt.Sprintf("Dropping table (%v/%v): %v", i+1, len(Tables), stmt.Schema.Table))
			db.Migrator().DropTable(table)
		}
	}

	for i, table := range Tables {
		stmt.Parse(table)
		log.Println(fmt.Sprintf("Migrating table (%v/%v): %v", i+1, len(Tables), stmt.Schema.Table))
		err = db.AutoMigrate(table)
		if err != nil {
			panic(fmt.Sprintf("Failed to migrate table: %v", err))
		}
	}

	return db
}
