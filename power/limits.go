package power

import (
	"context"
	"fmt"
	"sync"
	"time"

	"evstation/internal"
	"evstation/metrics/counters"
	"evstation/types"
)

const featureNameLimits = "LimitPublisher"

// EffectiveLimit is the limit an EVSE has to respect right now.
type EffectiveLimit struct {
	EvseId       int                        `json:"evseId"`
	Limit        float64                    `json:"limit"`
	Unit         types.ChargingRateUnitType `json:"unit"`
	NumberPhases *int                       `json:"numberPhases,omitempty"`
	Since        time.Time                  `json:"since"`
	Until        time.Time                  `json:"until"`
}

func (l EffectiveLimit) same(other EffectiveLimit) bool {
	return l.Limit == other.Limit && l.Unit == other.Unit && samePhases(l.NumberPhases, other.NumberPhases)
}

// LimitSink receives effective limits, typically the power electronics.
type LimitSink interface {
	PublishLimit(limit EffectiveLimit) error
}

// LogSink only writes the limits to the log.
type LogSink struct {
	Log internal.LogHandler
}

func (s LogSink) PublishLimit(limit EffectiveLimit) error {
	s.Log.FeatureEvent(featureNameLimits, "", fmt.Sprintf("evse %d limit %.1f%s", limit.EvseId, limit.Limit, limit.Unit))
	return nil
}

// LimitPublisher recomputes the composite schedule of every EVSE after a
// profile or transaction change and when a schedule period ends, and pushes
// changed limits to the sink.
type LimitPublisher struct {
	calculator *CompositeCalculator
	evses      EvseState
	sink       LimitSink
	log        internal.LogHandler
	unit       types.ChargingRateUnitType
	horizon    time.Duration
	now        func() time.Time
	mutex      sync.Mutex
	last       map[int]EffectiveLimit
	wake       chan struct{}
}

func NewLimitPublisher(calculator *CompositeCalculator, evses EvseState, sink LimitSink, log internal.LogHandler) *LimitPublisher {
	if log == nil {
		log = internal.NopLogger{}
	}
	if sink == nil {
		sink = LogSink{Log: log}
	}
	return &LimitPublisher{
		calculator: calculator,
		evses:      evses,
		sink:       sink,
		log:        log,
		unit:       types.ChargingRateUnitAmperes,
		horizon:    24 * time.Hour,
		now:        time.Now,
		last:       make(map[int]EffectiveLimit),
		wake:       make(chan struct{}, 1),
	}
}

// OnChange is registered as a profile and transaction listener.
func (lp *LimitPublisher) OnChange(int) {
	select {
	case lp.wake <- struct{}{}:
	default:
	}
}

func (lp *LimitPublisher) Start(ctx context.Context) {
	go lp.Run(ctx)
}

func (lp *LimitPublisher) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-lp.wake:
		case <-timer.C:
		}
		next := lp.Update()
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(next)
	}
}

// Update publishes the current limit of every EVSE and returns how long the
// limits stay as they are.
func (lp *LimitPublisher) Update() time.Duration {
	lp.mutex.Lock()
	defer lp.mutex.Unlock()
	now := lp.now()
	wait := time.Minute
	for _, evseId := range lp.evses.EvseIds() {
		limit := lp.current(evseId, now)
		if until := limit.Until.Sub(now); until > 0 && until < wait {
			wait = until
		}
		counters.ObserveLimit(evseId, string(limit.Unit), limit.Limit)
		if previous, ok := lp.last[evseId]; ok && previous.same(limit) {
			continue
		}
		if err := lp.sink.PublishLimit(limit); err != nil {
			lp.log.Error(fmt.Sprintf("publishing limit for evse %d", evseId), err)
			continue
		}
		lp.last[evseId] = limit
	}
	return wait
}

func (lp *LimitPublisher) current(evseId int, now time.Time) EffectiveLimit {
	schedule := lp.calculator.Calculate(CompositeRequest{
		Start:              now,
		End:                now.Add(lp.horizon),
		EvseId:             evseId,
		RateUnit:           lp.unit,
		IncludeStationWide: true,
	})
	limit := EffectiveLimit{
		EvseId: evseId,
		Unit:   schedule.ChargingRateUnit,
		Since:  now,
		Until:  now.Add(lp.horizon),
	}
	periods := schedule.ChargingSchedulePeriod
	if len(periods) == 0 {
		return limit
	}
	limit.Limit = periods[0].Limit
	limit.NumberPhases = periods[0].NumberPhases
	if len(periods) > 1 {
		limit.Until = now.Add(time.Duration(periods[1].StartPeriod) * time.Second)
	}
	return limit
}

// Limits returns the limits last published.
func (lp *LimitPublisher) Limits() []EffectiveLimit {
	lp.mutex.Lock()
	defer lp.mutex.Unlock()
	var list []EffectiveLimit
	for _, evseId := range lp.evses.EvseIds() {
		if limit, ok := lp.last[evseId]; ok {
			list = append(list, limit)
		}
	}
	return list
}
