package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/gamehub-points/internal/config"
	"github.com/gamehub-points/internal/domain"
)

// AwardHandler grants points for ingested events
type AwardHandler interface {
	AwardPoints(ctx context.Context, req domain.AwardRequest) (*domain.AwardRecord, error)
}

// AwardEvent is the message format for award events on the wire
type AwardEvent struct {
	PlayerID string `json:"player_id"`
	GameID   string `json:"game_id,omitempty"`
	Action   string `json:"action"`
	Points   int64  `json:"points"`
}

// Consumer consumes award events from Kafka. Replayed or duplicated events
// are safe: the ledger's uniqueness constraint turns them into
// ErrAlreadyAwarded, which is acknowledged as already done.
type Consumer struct {
	config        *config.KafkaConfig
	handler       AwardHandler
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, handler AwardHandler, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:        cfg,
		handler:       handler,
		logger:        logger,
		consumerGroup: consumerGroup,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
	}, nil
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start() error {
	c.logger.Info("starting Kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			handler := &consumerGroupHandler{
				consumer: c,
				ready:    c.ready,
			}

			if err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler); err != nil {
				if err == sarama.ErrClosedConsumerGroup {
					return
				}
				c.logger.Error("error from consumer", "error", err)
			}

			// Check if context was cancelled
			if c.ctx.Err() != nil {
				return
			}

			c.ready = make(chan bool)
		}
	}()

	// Wait until consumer is ready
	<-c.ready
	c.logger.Info("Kafka consumer ready")

	// Handle errors in separate goroutine
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping Kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
	ready    chan bool
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from a topic partition
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil

		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			var event AwardEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				h.consumer.logger.Warn("failed to unmarshal message",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				session.MarkMessage(message, "")
				continue
			}

			h.process(event, message)
			session.MarkMessage(message, "")
		}
	}
}

// process applies a single award event
func (h *consumerGroupHandler) process(event AwardEvent, message *sarama.ConsumerMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := domain.AwardRequest{
		PlayerID: event.PlayerID,
		Action:   domain.ActionKind(event.Action),
		Points:   event.Points,
	}
	if event.GameID != "" {
		gameID := event.GameID
		req.GameID = &gameID
	}

	_, err := h.consumer.handler.AwardPoints(ctx, req)
	switch {
	case err == nil:
		h.consumer.logger.Debug("award event applied",
			"player_id", event.PlayerID,
			"action", event.Action,
		)
	case domain.IsConflict(err):
		h.consumer.logger.Debug("award event already applied",
			"player_id", event.PlayerID,
			"action", event.Action,
		)
	case domain.IsNotFound(err) || domain.IsInvalidArgument(err):
		h.consumer.logger.Warn("dropping invalid award event",
			"player_id", event.PlayerID,
			"action", event.Action,
			"offset", message.Offset,
			"error", err,
		)
	default:
		h.consumer.logger.Error("failed to apply award event",
			"player_id", event.PlayerID,
			"action", event.Action,
			"offset", message.Offset,
			"error", err,
		)
	}
}
