package wire

import (
	"ConectaYa/internal/api"
	"ConectaYa/internal/api/config"
	"ConectaYa/internal/api/handler"
	"ConectaYa/internal/job"
	"ConectaYa/internal/pkg/cron"
	"ConectaYa/internal/pkg/kafka"
	pkgmongo "ConectaYa/internal/pkg/mongo"
	"ConectaYa/internal/pkg/springboot"
	"ConectaYa/internal/repository"
	"ConectaYa/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router        *gin.Engine
	DB            *gorm.DB
	CronMgr       *cron.Manager
	KafkaProducer *kafka.Producer
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	bookingRepo := repository.NewBookingRepo(db)
	serviceRepo := repository.NewServiceRepo(db)
	profileRepo := repository.NewUserProfileRepo(db)
	convRepo := repository.NewConversationRepo(db)
	messageRepo := pkgmongo.NewMessageRepo(mongoDB)

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	collab := springboot.NewClient()
	publisher := service.NewEventPublisher()

	chatService := service.NewChatService(convRepo, messageRepo, publisher, collab)
	bookingService := service.NewBookingService(bookingRepo, serviceRepo, profileRepo,
		chatService, collab, producer)

	handlers := &api.HandlersGroup{
		BookingHandler: handler.NewBookingHandler(bookingService),
		ChatHandler:    handler.NewChatHandler(chatService),
		WSHandler:      handler.NewWsHandler(chatService),
		MediaHandler:   handler.NewMediaHandler(),
	}

	router := api.SetupRouter(handlers)

	statsJob := job.NewBookingStatsJob(bookingRepo, profileRepo)
	cronMgr := cron.NewCronManager(statsJob)

	return &ApplicationContainer{
		Router:        router,
		DB:            db,
		CronMgr:       cronMgr,
		KafkaProducer: producer,
	}, nil
}
