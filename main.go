package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"TMProject/global"
	"TMProject/logger"
	"TMProject/middleware"
	chat "TMProject/module/chat"
	"TMProject/module/chat/message"
	chatservice "TMProject/module/chat/service"
	user "TMProject/module/user"
	userservice "TMProject/module/user/service"
	"TMProject/service/mgo"
	pgstore "TMProject/service/storage/pg"
	rds "TMProject/service/storage/redis"
	"TMProject/tools/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// userDirAdapter 把身份服务缩窄成聊天引擎需要的目录视图
type userDirAdapter struct {
	svc *userservice.Service
}

func (a userDirAdapter) ResolveUser(ctx context.Context, id string) (chatservice.UserRef, error) {
	u, err := a.svc.ResolveUser(ctx, id)
	if err != nil {
		return chatservice.UserRef{}, err
	}
	return chatservice.UserRef{ID: u.ID, DisplayName: u.DisplayName}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := global.Config()
	global.ConfigIds()

	// redis 可选：不配置就退化为纯 JWT 鉴权
	if cfg.RedisAddr != "" {
		if err := rds.InitRedis(rds.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}); err != nil {
			logger.Log.Fatal("redis init", zap.Error(err))
		}
		defer rds.CloseRedis()
	}

	var (
		dir       message.Directory
		store     message.Store
		userStore userservice.Store
	)
	switch cfg.StoreDriver {
	case global.DriverPostgres:
		if err := pgstore.InitPg(cfg.PgDSN); err != nil {
			logger.Log.Fatal("postgres init", zap.Error(err))
		}
		defer pgstore.ClosePg()
		s := message.NewPgStore(pgstore.GetPool())
		dir, store = s, s
		userStore = userservice.NewPgUserStore(pgstore.GetPool())
	case global.DriverMongo:
		if err := mgo.Start(ctx, &mgo.Config{Uri: cfg.MongoURI, Database: cfg.MongoDB}); err != nil {
			logger.Log.Fatal("mongo init", zap.Error(err))
		}
		defer func() { _ = mgo.Stop(context.Background()) }()
		s := message.NewMongoStore(mgo.GetDB())
		dir, store = s, s
		userStore = userservice.NewMongoUserStore(mgo.GetDB())
	default:
		s := message.NewMemoryStore()
		dir, store = s, s
		userStore = userservice.NewMemoryUserStore()
	}
	logger.Infof("store driver: %s", cfg.StoreDriver)

	jwtOpts := security.DefaultOptions(global.GetJwtSecret())
	jwtOpts.TTL = cfg.TokenTTL

	userSvc := userservice.NewService(userStore, jwtOpts)
	chatSvc := chatservice.New(dir, store, userDirAdapter{svc: userSvc})

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Origin())
	user.NewHandler(userSvc).RegisterRoutes(r)
	chat.NewHandler(chatSvc).RegisterRoutes(r)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Infof("http listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("http serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("http shutdown: " + err.Error())
	}
}
