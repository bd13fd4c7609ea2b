package main

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"day-planner/internal/config"
	"day-planner/internal/ids"
	"day-planner/internal/repository"
	"day-planner/internal/service"
	"day-planner/internal/store"
)

// app bundles the wiring shared by every subcommand.
type app struct {
	cfg        config.Config
	db         *gorm.DB
	records    *repository.RecordRepository
	users      *repository.UserRepository
	registry   *store.Registry
	reminders  *service.ReminderService
	tasks      *service.TaskService
	categories *service.CategoryService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	records := repository.NewRecordRepository(db)
	registry := store.NewRegistry(func(namespace string) store.Backend {
		return records.Bucket(namespace)
	})
	reminders := service.NewReminderService(time.Local)

	return &app{
		cfg:        cfg,
		db:         db,
		records:    records,
		users:      repository.NewUserRepository(db),
		registry:   registry,
		reminders:  reminders,
		tasks:      service.NewTaskService(ids.TimeOrdered{}, reminders),
		categories: service.NewCategoryService(ids.TimeOrdered{}),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
