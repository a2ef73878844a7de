package registry

import (
	"fmt"
	"seafood_shop/internal/pkg/uploader"
	"seafood_shop/internal/pkg/worker"
	"seafood_shop/pkg/cache"
	"seafood_shop/pkg/metrics"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	DB       *gorm.DB
	Reports  *sqlx.DB // 统计只读查询
	Redis    *redis.Client
	Router   *gin.Engine
	Cache    cache.CacheService
	Uploader uploader.Uploader // 未配置 OSS 时为 nil
	Tasks    *worker.WorkerPool
	Metrics  *metrics.MetricsCollector

	// 模块间共享的服务，按名称注册，由低优先级模块读取
	services map[string]interface{}
}

// Provide 注册供其他模块使用的服务
func (c *ModuleContext) Provide(name string, svc interface{}) {
	if c.services == nil {
		c.services = make(map[string]interface{})
	}
	c.services[name] = svc
}

// Lookup 获取已注册的服务
func (c *ModuleContext) Lookup(name string) (interface{}, error) {
	svc, ok := c.services[name]
	if !ok {
		return nil, fmt.Errorf("service %q not provided, check module priorities", name)
	}
	return svc, nil
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	return moduleRegistry
}

// InitModules 按优先级初始化所有模块，同优先级按名称排序
func InitModules(ctx *ModuleContext) error {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})

	for _, module := range modules {
		if err := module.Init(ctx); err != nil {
			return fmt.Errorf("init module %s: %w", module.Name(), err)
		}
	}
	return nil
}
