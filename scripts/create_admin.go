// 创建或提升管理员账号
//
// 注册接口只允许学员和创作者，管理员通过此脚本从 YAML 文件导入。
// 邮箱已存在的账号会被提升为管理员并重置密码。
//
// 用法: go run scripts/create_admin.go -file configs/admins.yaml

package main

import (
	"context"
	"course_market_backend/internal/config"
	"course_market_backend/internal/repository"
	"course_market_backend/internal/service"
	"course_market_backend/pkg/database"
	"course_market_backend/pkg/logger"
	"flag"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type adminSeed struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type seedFile struct {
	Admins []adminSeed `yaml:"admins"`
}

func main() {
	file := flag.String("file", "configs/admins.yaml", "管理员账号文件")
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("无法读取管理员文件: %v", err)
	}

	var seeds seedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		log.Fatalf("解析管理员文件失败: %v", err)
	}
	if len(seeds.Admins) == 0 {
		log.Fatalf("%s 中没有管理员账号", *file)
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, true)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	auth := service.NewAuthService(repository.NewUserRepository(db), cfg)
	ctx := context.Background()
	for _, seed := range seeds.Admins {
		user, created, err := auth.EnsureAdmin(ctx, seed.Name, seed.Email, seed.Password)
		if err != nil {
			log.Fatalf("创建管理员 %s 失败: %v", seed.Email, err)
		}
		if created {
			log.Printf("已创建管理员 %s (id=%d)", user.Email, user.ID)
		} else {
			log.Printf("已提升为管理员 %s (id=%d)", user.Email, user.ID)
		}
	}
}
