package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jianlou/internal/constants"
	"jianlou/internal/model"
	"jianlou/internal/repository"
	"jianlou/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// 认证Token缓存
const (
	authTokenCachePrefix = "auth:token:"
	authTokenCacheTTL    = 5 * time.Minute
)

// UserService 用户服务
// 身份由上游认证服务维护，这里只做Token到用户的解析，Redis做一层短缓存
type UserService struct {
	userRepo    *repository.UserRepository
	redisClient *redis.Client
	logger      *logger.Logger
}

// NewUserService 创建用户服务
func NewUserService(userRepo *repository.UserRepository, redisClient *redis.Client, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo:    userRepo,
		redisClient: redisClient,
		logger:      logger,
	}
}

// GetByToken 根据Token获取用户，优先走Redis缓存
func (s *UserService) GetByToken(ctx context.Context, token string) (*model.User, error) {
	cacheKey := authTokenCachePrefix + token

	cached, err := s.redisClient.Get(ctx, cacheKey).Result()
	if err == nil {
		var user model.User
		if jsonErr := json.Unmarshal([]byte(cached), &user); jsonErr == nil {
			return &user, nil
		}
		// 缓存内容损坏时回源并覆盖
	}

	user, err := s.userRepo.GetByToken(token)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return nil, errors.New(constants.ErrInvalidToken)
	}

	if data, jsonErr := json.Marshal(user); jsonErr == nil {
		if cacheErr := s.redisClient.Set(ctx, cacheKey, data, authTokenCacheTTL).Err(); cacheErr != nil {
			s.logger.Warn("写入Token缓存失败", "error", cacheErr)
		}
	}

	return user, nil
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return s.userRepo.GetByID(id)
}
