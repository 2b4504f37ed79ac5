package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jonas747/dcmd/v4"
	"github.com/jonas747/discordgo/v2"
	"github.com/jonas747/dstate/v4/inmemorytracker"
	"github.com/joho/godotenv"
	"github.com/mediocregopher/radix/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/meeow/eventbot/common"
	"github.com/meeow/eventbot/common/backgroundworkers"
	"github.com/meeow/eventbot/eventstore"
	"github.com/meeow/eventbot/reminders"
	"github.com/meeow/eventbot/schedule"
)

var logger = common.GetFixedPrefixLogger("main")

func main() {
	// .env is optional, real deployments set the environment directly
	godotenv.Load()

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logrus.AddHook(common.ContextHook{})

	common.LoadConfig()

	token := common.ConfBotToken.GetString()
	if token == "" {
		logger.Fatal("no bot token set, set EVENTBOT_BOT_TOKEN")
	}
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}

	logger.Info("starting eventbot version ", common.VERSION)

	session, err := discordgo.New(token)
	if err != nil {
		logger.WithError(err).Fatal("failed initializing discordgo")
	}
	session.Intents = []discordgo.GatewayIntent{
		discordgo.GatewayIntentGuilds,
		discordgo.GatewayIntentGuildMessages,
		discordgo.GatewayIntentGuildMessageReactions,
	}
	session.StateEnabled = false
	common.BotSession = session

	state := inmemorytracker.NewInMemoryTracker(inmemorytracker.TrackerConfig{}, 1)

	common.RedisPool, err = radix.NewPool("tcp", common.ConfRedis.GetString(), 10)
	if err != nil {
		logger.WithError(err).Fatal("failed connecting to redis")
	}

	common.Mongo = connectMongo()

	eventstore.DefaultZone = common.ConfDefaultTimezone.GetString()

	store := eventstore.NewMongoStore(common.Mongo)
	configs := eventstore.NewMongoConfigStore(common.Mongo)

	remindersPlugin := reminders.RegisterPlugin(store, reminders.DiscordNotifier{})
	schedulePlugin := schedule.RegisterPlugin(store, configs, remindersPlugin, schedule.RedisMessageIndex{})

	system := dcmd.NewStandardSystem(common.ConfCommandPrefix.GetString())
	system.State = state
	schedulePlugin.AddCommands(system.Root)

	session.AddHandler(state.HandleEvent)
	session.AddHandler(system.HandleMessageCreate)
	session.AddHandler(schedulePlugin.HandleMessageReactionAdd)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		common.BotUser = r.User.User
		logger.Info("logged in as ", r.User.Username)
	})

	err = session.Open()
	if err != nil {
		logger.WithError(err).Fatal("failed opening gateway connection")
	}

	backgroundworkers.RunWorkers()
	logger.Info("running, press ctrl-c to stop")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	logger.Info("shutting down")
	var wg sync.WaitGroup
	backgroundworkers.StopWorkers(&wg)
	wg.Wait()
	session.Close()
}

func connectMongo() *mongo.Database {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(common.ConfMongoURI.GetString()))
	if err != nil {
		logger.WithError(err).Fatal("failed connecting to mongodb")
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		logger.WithError(err).Fatal("failed pinging mongodb")
	}

	return client.Database(common.ConfMongoDB.GetString())
}
