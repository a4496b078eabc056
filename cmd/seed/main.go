// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the demo requester (phone 0810000001) already exists.
package main

import (
	"context"
	"log"
	"time"

	"my-friends/backend/internal/config"
	"my-friends/backend/internal/db"
	taskdomain "my-friends/backend/internal/task/domain"
	taskrepo "my-friends/backend/internal/task/repository"
	userdomain "my-friends/backend/internal/user/domain"
	userrepo "my-friends/backend/internal/user/repository"
)

const (
	demoRequesterPhone = "0810000001"
	demoHelperPhone    = "0810000002"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	users, tasks, err := buildRepositories(cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	ctx := context.Background()
	existing, err := users.GetByPhone(ctx, demoRequesterPhone)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if existing != nil {
		log.Println("seed: demo data already present, nothing to do")
		return
	}

	now := time.Now().UTC()
	requester := &userdomain.User{
		ID:        "demo-requester-001",
		Name:      "Somchai Demo",
		Phone:     demoRequesterPhone,
		Location:  "Bangkok",
		Role:      userdomain.RoleRequester,
		CreatedAt: now,
	}
	helper := &userdomain.User{
		ID:        "demo-helper-001",
		Name:      "Suda Demo",
		Phone:     demoHelperPhone,
		Location:  "Bangkok",
		Role:      userdomain.RoleHelper,
		CreatedAt: now,
	}
	for _, u := range []*userdomain.User{requester, helper} {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("seed user %s: %v", u.Phone, err)
		}
	}

	task := taskdomain.New("demo-task-001",
		"Buy lunch from the canteen",
		"One pad thai and a bottle of water, keep the receipt",
		"Dorm A, room 204",
		80, 40, requester, now)
	if err := tasks.Create(ctx, task); err != nil {
		log.Fatalf("seed task: %v", err)
	}

	log.Println("seed: created demo requester, helper, and one open task")
}

func buildRepositories(cfg *config.Config) (userrepo.Repository, taskrepo.Repository, error) {
	if cfg.StorageBackend == "postgres" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return userrepo.NewPostgresRepository(conn), taskrepo.NewPostgresRepository(conn), nil
	}
	users, err := userrepo.NewJSONFileRepository(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := taskrepo.NewJSONFileRepository(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return users, tasks, nil
}
