// Package krakenfeeder is a price source backed by the kraken websocket
// ticker stream. Pairs are subscribed on first request and their latest price
// is cached as updates arrive.
package krakenfeeder

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	pricefeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder"
)

const (
	// KrakenWebSocketURL is the url to open a connection with kraken.
	KrakenWebSocketURL = "wss://ws.kraken.com"
	// DefaultMaxAge is the max age of a cached price before it's considered
	// stale.
	DefaultMaxAge = 2 * time.Minute

	pollInterval = 50 * time.Millisecond
)

// kraken uses legacy codes for a few assets.
var assetAliases = map[string]string{
	"BTC":  "XBT",
	"DOGE": "XDG",
}

type Opts struct {
	URL    string
	MaxAge time.Duration
}

type priceFeed struct {
	price     decimal.Decimal
	updatedAt time.Time
}

type Service struct {
	url    string
	maxAge time.Duration

	connLock *sync.Mutex
	conn     *websocket.Conn
	pairs    map[string]bool

	latestFeedsByPairMtx *sync.RWMutex
	latestFeedsByPair    map[string]priceFeed

	quitChan chan struct{}
	quitOnce *sync.Once
	log      *log.Entry
}

func NewService(opts Opts) *Service {
	url := opts.URL
	if url == "" {
		url = KrakenWebSocketURL
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	return &Service{
		url:                  url,
		maxAge:               maxAge,
		connLock:             &sync.Mutex{},
		pairs:                make(map[string]bool),
		latestFeedsByPairMtx: &sync.RWMutex{},
		latestFeedsByPair:    make(map[string]priceFeed),
		quitChan:             make(chan struct{}),
		quitOnce:             &sync.Once{},
		log:                  log.WithFields(log.Fields{"module": "price-feeder", "source": "kraken"}),
	}
}

func (s *Service) Name() string {
	return "kraken"
}

// GetPrice returns the latest price streamed for symbol, waiting for the
// first update if the pair was just subscribed.
func (s *Service) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	pair, err := toPair(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.ensureSubscribed(pair); err != nil {
		return decimal.Zero, err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		feed, ok := s.readPriceFeed(pair)
		if ok && time.Since(feed.updatedAt) <= s.maxAge {
			return feed.price, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if ok {
				return decimal.Zero, fmt.Errorf("%s: %w", pair, pricefeeder.ErrStalePrice)
			}
			return decimal.Zero, fmt.Errorf(
				"%s: %w: %s", pair, pricefeeder.ErrPriceNotAvailable, ctx.Err(),
			)
		}
	}
}

// Stop closes the connection. The service can't be restarted.
func (s *Service) Stop() {
	s.quitOnce.Do(func() {
		close(s.quitChan)

		s.connLock.Lock()
		defer s.connLock.Unlock()
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

func (s *Service) ensureSubscribed(pair string) error {
	s.connLock.Lock()
	defer s.connLock.Unlock()

	select {
	case <-s.quitChan:
		return ErrServiceStopped
	default:
	}

	if s.conn == nil {
		conn, err := connect(s.url)
		if err != nil {
			return err
		}
		s.conn = conn
		go s.listen()
	}

	if s.pairs[pair] {
		return nil
	}
	if err := subscribe(s.conn, []string{pair}); err != nil {
		return err
	}
	s.pairs[pair] = true
	return nil
}

func (s *Service) listen() {
	mustReconnect, err := s.start()
	for mustReconnect {
		s.log.WithError(err).Warn("connection dropped unexpectedly. Trying to reconnect...")

		if err = s.reconnect(); err != nil {
			s.log.WithError(err).Warn("failed to reconnect, retrying on next request")
			return
		}

		s.log.Debug("connection and subscriptions re-established. Restarting...")
		mustReconnect, err = s.start()
	}
}

func (s *Service) reconnect() error {
	s.connLock.Lock()
	defer s.connLock.Unlock()

	conn, err := connect(s.url)
	if err != nil {
		s.conn = nil
		s.pairs = make(map[string]bool)
		return err
	}
	s.conn = conn

	pairs := make([]string, 0, len(s.pairs))
	for pair := range s.pairs {
		pairs = append(pairs, pair)
	}
	if len(pairs) > 0 {
		return subscribe(conn, pairs)
	}
	return nil
}

func (s *Service) start() (mustReconnect bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			mustReconnect = true
			err = fmt.Errorf("%v", rec)
		}
	}()

	s.connLock.Lock()
	conn := s.conn
	s.connLock.Unlock()

	for {
		// Sometimes ReadMessage panics instead of returning an
		// UnexpectedCloseError. The deferred recover turns both into a
		// reconnection.
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.quitChan:
				return false, nil
			default:
			}
			if websocket.IsCloseError(err, pricefeeder.WebSocketCloseErrors...) {
				s.log.WithError(err).Debug("connection closed by remote")
			}
			panic(err)
		}

		pair, feed, ok := parseFeed(message)
		if !ok {
			continue
		}
		s.writePriceFeed(pair, feed)
	}
}

func (s *Service) readPriceFeed(pair string) (priceFeed, bool) {
	s.latestFeedsByPairMtx.RLock()
	defer s.latestFeedsByPairMtx.RUnlock()

	feed, ok := s.latestFeedsByPair[pair]
	return feed, ok
}

func (s *Service) writePriceFeed(pair string, feed priceFeed) {
	s.latestFeedsByPairMtx.Lock()
	defer s.latestFeedsByPairMtx.Unlock()

	s.latestFeedsByPair[pair] = feed
}

// parseFeed extracts the last trade price from a ticker message in the form
// [channelID, {"c": [price, volume], ...}, "ticker", pair].
func parseFeed(msg []byte) (string, priceFeed, bool) {
	var i []interface{}
	if err := json.Unmarshal(msg, &i); err != nil {
		return "", priceFeed{}, false
	}
	if len(i) != 4 {
		return "", priceFeed{}, false
	}

	pair, ok := i[3].(string)
	if !ok {
		return "", priceFeed{}, false
	}

	ii, ok := i[1].(map[string]interface{})
	if !ok {
		return "", priceFeed{}, false
	}

	iii, ok := ii["c"].([]interface{})
	if !ok || len(iii) < 1 {
		return "", priceFeed{}, false
	}
	priceStr, ok := iii[0].(string)
	if !ok {
		return "", priceFeed{}, false
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil || !price.IsPositive() {
		return "", priceFeed{}, false
	}

	return pair, priceFeed{price: price, updatedAt: time.Now()}, true
}

func toPair(symbol string) (string, error) {
	base, quote, err := pricefeeder.SplitSymbol(symbol)
	if err != nil {
		return "", err
	}
	if alias, ok := assetAliases[base]; ok {
		base = alias
	}
	if alias, ok := assetAliases[quote]; ok {
		quote = alias
	}
	return base + "/" + quote, nil
}

func subscribe(conn *websocket.Conn, pairs []string) error {
	msg := map[string]interface{}{
		"event": "subscribe",
		"pair":  pairs,
		"subscription": map[string]string{
			"name": "ticker",
		},
	}

	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("cannot subscribe to given pairs: %s", err)
	}
	return nil
}

func connect(url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
