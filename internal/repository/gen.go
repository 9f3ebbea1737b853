package repository

import (
	"fmt"
	"os"

	"gorm.io/gen"

	"Weave/storage/database"
)

// ========== User 相关查询接口 ==========

// UserQuerier 用户查询接口
type UserQuerier interface {
	// GetByPublicID 根据对外 ID 查询用户
	// SELECT * FROM @@table WHERE public_id = @publicID LIMIT 1
	GetByPublicID(publicID int64) (*gen.T, error)

	// ListActiveAfter 分页列出正常状态用户（调度器全量巡检用）
	// SELECT * FROM @@table
	// WHERE status = 'active' AND id > @afterID
	// ORDER BY id
	// LIMIT @limit
	ListActiveAfter(afterID int64, limit int) ([]*gen.T, error)
}

// ========== Friend 相关查询接口 ==========

// FriendQuerier 好友查询接口
type FriendQuerier interface {
	// ListDrifting 查询超过天数未互动的好友
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	//   AND archived = false
	//   AND (last_interaction_at IS NULL OR last_interaction_at < NOW() - make_interval(days => @days))
	// ORDER BY last_interaction_at ASC NULLS FIRST
	ListDrifting(userID int64, days int) ([]*gen.T, error)

	// ListWithAnniversary 查询设置了纪念日的好友
	// SELECT * FROM @@table
	// WHERE user_id = @userID AND archived = false AND anniversary_date IS NOT NULL
	ListWithAnniversary(userID int64) ([]*gen.T, error)
}

// ========== Interaction 相关查询接口 ==========

// InteractionQuerier 互动查询接口
type InteractionQuerier interface {
	// ListPlannedInRange 查询时间窗口内的已计划互动
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	//   AND status = 'planned'
	//   AND occurs_at >= @from AND occurs_at < @to
	// ORDER BY occurs_at ASC
	ListPlannedInRange(userID int64, from, to string) ([]*gen.T, error)

	// ListRecentCompleted 查询最近完成的互动（深化跟进用）
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	//   AND status = 'completed'
	//   AND completed_at >= @since
	// ORDER BY completed_at DESC
	ListRecentCompleted(userID int64, since string) ([]*gen.T, error)
}

func Generate() error {

	if err := database.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 运行数据库迁移（确保表存在）
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}

	db := database.DB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./internal/repository/query", // 生成代码的输出路径
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface | gen.WithoutContext,
		FieldNullable:     true,
		FieldCoverable:    false,
		FieldSignable:     false,
		FieldWithIndexTag: false,
		FieldWithTypeTag:  true,
	})

	g.UseDB(db)

	// 从表生成模型
	userModel := g.GenerateModel("users")
	friendModel := g.GenerateModel("friends")
	interactionModel := g.GenerateModel("interactions")
	g.GenerateModel("interaction_friends")
	g.GenerateModel("daily_digests")

	g.ApplyInterface(func(UserQuerier) {}, userModel)
	g.ApplyInterface(func(FriendQuerier) {}, friendModel)
	g.ApplyInterface(func(InteractionQuerier) {}, interactionModel)

	g.Execute()

	return nil
}

func RunGenerate() {
	if err := Generate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate code: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Code generation completed successfully!")
}
