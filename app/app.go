package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"evstation/api"
	"evstation/devicemodel"
	"evstation/dispatch"
	"evstation/evse"
	"evstation/internal"
	"evstation/internal/config"
	"evstation/metrics"
	"evstation/power"
	"evstation/pusher"
	"evstation/station"
	"evstation/transport"
	"evstation/types"
)

// App is the charging station process: the CSMS link, the smart charging
// core and the local surfaces around it.
type App struct {
	conf    *config.Config
	logger  *internal.Logger
	station *station.ChargingStation
	client  *transport.Client
	limits  *power.LimitPublisher
	api     *api.Server
	pusher  *pusher.MessagePusher
	storage *devicemodel.SQLiteStorage
}

func New(conf *config.Config) (*App, error) {
	a := &App{conf: conf}

	log.Println("set time zone to " + conf.TimeZone)
	location, err := time.LoadLocation(conf.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone initialization failed: %w", err)
	}

	var mongo *internal.MongoDB
	if conf.Mongo.Enabled {
		mongo, err = internal.NewMongoClient(conf)
		if err != nil {
			return nil, fmt.Errorf("mongodb setup failed: %w", err)
		}
		log.Println("mongodb is configured and enabled")
	} else {
		log.Println("database is disabled")
	}

	logService := internal.NewLogger("evstation", location)
	logService.SetDebugMode(conf.Debug())
	if mongo != nil {
		logService.SetDatabase(mongo)
	}
	a.logger = logService

	var storage devicemodel.Storage
	if conf.DeviceModel.Path != "" {
		a.storage, err = devicemodel.OpenSQLite(conf.DeviceModel.Path)
		if err != nil {
			return nil, fmt.Errorf("device model storage: %w", err)
		}
		storage = a.storage
	}
	device := devicemodel.NewStore(storage, logService)
	if err = device.Load(devicemodel.Defaults(conf)); err != nil {
		return nil, err
	}

	evses := evse.NewManager(evsesFrom(conf), logService)

	var repository power.Repository = power.NewMemoryRepository()
	if mongo != nil {
		repository = mongo
	}
	profiles, err := power.NewProfileManager(repository, device, evses, logService)
	if err != nil {
		return nil, fmt.Errorf("loading charging profiles: %w", err)
	}
	calculator := power.NewCompositeCalculator(profiles, device, evses, logService)

	a.pusher, err = pusher.NewPusher(conf, logService)
	if err != nil {
		return nil, fmt.Errorf("mqtt setup failed: %w", err)
	}
	var sink power.LimitSink = power.LogSink{Log: logService}
	if a.pusher != nil {
		log.Println("mqtt limit publishing is configured and enabled")
		sink = a.pusher
	}
	a.limits = power.NewLimitPublisher(calculator, evses, sink, logService)
	profiles.OnChange(a.limits.OnChange)
	evses.OnChange(a.limits.OnChange)

	a.client = transport.NewClient(conf)
	a.client.SetLogger(logService)
	dispatcher := dispatch.NewDispatcher(a.client, station.Features(), dispatch.Config{
		MessageTimeout:      conf.Dispatch.MessageTimeout,
		TransactionAttempts: device.GetInt(devicemodel.MessageAttempts, conf.Dispatch.TransactionAttempts),
		RetryInterval:       conf.Dispatch.RetryInterval,
		QueueAllMessages:    device.GetBool(devicemodel.QueueAllMessages, conf.Dispatch.QueueAllMessages),
	}, logService)

	a.station = station.NewChargingStation(station.Info{
		Id:              conf.Station.Id,
		Vendor:          conf.Station.Vendor,
		Model:           conf.Station.Model,
		SerialNumber:    conf.Station.SerialNumber,
		FirmwareVersion: conf.Station.FirmwareVersion,
	}, dispatcher, profiles, calculator, evses, device)
	a.station.SetLogger(logService)
	a.station.SetTimeout(conf.Dispatch.MessageTimeout)

	a.client.SetMessageHandler(a.station.HandleMessage)
	a.client.SetConnectionHandlers(a.onConnected, a.onDisconnected)

	a.api = api.NewServer(conf, api.Components{
		StationId:  conf.Station.Id,
		Station:    a.station,
		Profiles:   profiles,
		Calculator: calculator,
		Limits:     a.limits,
		Dispatcher: dispatcher,
		Evses:      evses,
	}, logService)
	if mongo != nil {
		a.api.SetDatabase(mongo)
	}
	return a, nil
}

func evsesFrom(conf *config.Config) []evse.Evse {
	if len(conf.Station.Evses) == 0 {
		return []evse.Evse{{Id: 1, PhaseType: types.CurrentPhaseAC}}
	}
	list := make([]evse.Evse, 0, len(conf.Station.Evses))
	for _, e := range conf.Station.Evses {
		list = append(list, evse.Evse{Id: e.Id, PhaseType: types.CurrentPhaseType(e.PhaseType)})
	}
	return list
}

func (a *App) onConnected() {
	a.station.OnConnected()
	if a.pusher != nil {
		a.pusher.PublishConnection(true)
	}
}

func (a *App) onDisconnected() {
	a.station.OnDisconnected()
	if a.pusher != nil {
		a.pusher.PublishConnection(false)
	}
}

// Run blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.station.Start(ctx)
	a.limits.Start(ctx)
	a.client.Start(ctx)

	go func() {
		if err := metrics.Listen(ctx, a.conf, a.logger); err != nil {
			a.logger.Error("metrics server", err)
		}
	}()
	go func() {
		if err := a.api.Start(); err != nil {
			a.logger.Error("api server", err)
		}
	}()
	a.logger.FeatureEvent("Station", a.conf.Station.Id, fmt.Sprintf("started, csms %s", a.conf.Csms.Url))

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.api.Shutdown(shutdown); err != nil {
		a.logger.Error("api shutdown", err)
	}
	return nil
}

func (a *App) Close() error {
	if a.pusher != nil {
		a.pusher.Close()
	}
	if a.storage != nil {
		return a.storage.Close()
	}
	return nil
}
