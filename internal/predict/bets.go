package predict

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkoval/dexbook/internal/domain"
)

var (
	ErrBetNotFound = errors.New("bet not found")
	ErrInvalidBet  = errors.New("invalid bet")
)

type Direction string

const (
	Up   Direction = "UP"
	Down Direction = "DOWN"
)

type Status string

const (
	StatusOpen Status = "OPEN"
	StatusWon  Status = "WON"
	StatusLost Status = "LOST"
)

// Bet is a timed direction call on a pair's mid-price: entry mid is taken at
// placement, exit mid when the timer fires. A correct call pays
// stake × multiplier, an incorrect or flat one pays nothing.
type Bet struct {
	ID        string
	Pair      string
	Address   string
	Direction Direction
	Stake     decimal.Decimal
	EntryMid  decimal.Decimal
	ExitMid   decimal.Decimal
	Payout    decimal.Decimal
	Status    Status
	PlacedAt  time.Time
	ResolveAt time.Time
}

// MidPricer is the only thing the bet service needs from the engine. The
// engine itself carries no timers; settlement polls it from the outside.
type MidPricer interface {
	MidPrice(pair string) decimal.Decimal
}

type Config struct {
	Multiplier  decimal.Decimal
	MinDuration time.Duration
	MaxDuration time.Duration
}

type Service struct {
	mu   sync.Mutex
	bets map[string]*Bet

	quotes MidPricer
	cfg    Config
	log    *zap.Logger
}

func NewService(quotes MidPricer, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Multiplier.GreaterThan(decimal.Zero) {
		cfg.Multiplier = decimal.NewFromFloat(1.9)
	}
	return &Service{
		bets:   make(map[string]*Bet),
		quotes: quotes,
		cfg:    cfg,
		log:    log,
	}
}

// Place records the entry mid-price and schedules settlement after d.
func (s *Service) Place(pair, address string, dir Direction, stake decimal.Decimal, d time.Duration) (*Bet, error) {
	if dir != Up && dir != Down {
		return nil, fmt.Errorf("%w: direction %q", ErrInvalidBet, dir)
	}
	if !stake.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: stake must be > 0", ErrInvalidBet)
	}
	if pair == "" {
		return nil, fmt.Errorf("%w: pair required", ErrInvalidBet)
	}
	if s.cfg.MinDuration > 0 && d < s.cfg.MinDuration {
		return nil, fmt.Errorf("%w: duration below %s", ErrInvalidBet, s.cfg.MinDuration)
	}
	if s.cfg.MaxDuration > 0 && d > s.cfg.MaxDuration {
		return nil, fmt.Errorf("%w: duration above %s", ErrInvalidBet, s.cfg.MaxDuration)
	}

	now := time.Now()
	bet := &Bet{
		ID:        uuid.NewString(),
		Pair:      pair,
		Address:   domain.NormalizeAddress(address),
		Direction: dir,
		Stake:     stake,
		EntryMid:  s.quotes.MidPrice(pair),
		Status:    StatusOpen,
		PlacedAt:  now,
		ResolveAt: now.Add(d),
	}

	s.mu.Lock()
	s.bets[bet.ID] = bet
	s.mu.Unlock()

	time.AfterFunc(d, func() { s.resolve(bet.ID) })

	s.log.Debug("bet placed",
		zap.String("bet_id", bet.ID),
		zap.String("pair", pair),
		zap.String("direction", string(dir)),
		zap.Duration("duration", d))
	cp := *bet
	return &cp, nil
}

func (s *Service) Get(id string) (*Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bet, ok := s.bets[id]
	if !ok {
		return nil, ErrBetNotFound
	}
	cp := *bet
	return &cp, nil
}

// ListByAddress returns all bets an address has placed, newest first not
// guaranteed; callers sort if they care.
func (s *Service) ListByAddress(address string) []*Bet {
	address = domain.NormalizeAddress(address)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Bet
	for _, b := range s.bets {
		if b.Address == address {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

func (s *Service) resolve(id string) {
	s.mu.Lock()
	bet, ok := s.bets[id]
	if !ok || bet.Status != StatusOpen {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// mid-price query happens outside the bet lock
	exit := s.quotes.MidPrice(bet.Pair)

	s.mu.Lock()
	defer s.mu.Unlock()
	bet.ExitMid = exit
	won := (bet.Direction == Up && exit.GreaterThan(bet.EntryMid)) ||
		(bet.Direction == Down && exit.LessThan(bet.EntryMid))
	if won {
		bet.Status = StatusWon
		bet.Payout = bet.Stake.Mul(s.cfg.Multiplier)
	} else {
		bet.Status = StatusLost
		bet.Payout = decimal.Zero
	}
	s.log.Debug("bet resolved",
		zap.String("bet_id", bet.ID),
		zap.String("status", string(bet.Status)),
		zap.String("entry", bet.EntryMid.String()),
		zap.String("exit", exit.String()))
}
