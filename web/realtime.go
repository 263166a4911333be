package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/to404hanga/online_judge_duel/constants"
	"github.com/to404hanga/online_judge_duel/entity"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/gintool"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/realtime"
	"github.com/to404hanga/online_judge_duel/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsReadLimit  = 512
	wsSendBuffer = 32
)

var (
	errClientClosed = errors.New("client closed")
	errSlowConsumer = errors.New("slow consumer")
	errFeedFinished = errors.New("feed finished")
)

// Subscriber 变更订阅, 由 realtime.Synchronizer 实现
type Subscriber interface {
	SubscribeDuel(ctx context.Context, duelID string, cb func(*entity.Duel)) (*realtime.Subscription, error)
	SubscribeActivity(ctx context.Context, cb func(*realtime.Activity)) (*realtime.Subscription, error)
}

type RealtimeHandler struct {
	duelSvc    service.DuelService
	subscriber Subscriber
	upgrader   websocket.Upgrader
	log        logger.Logger
}

var _ Handler = (*RealtimeHandler)(nil)

func NewRealtimeHandler(duelSvc service.DuelService, subscriber Subscriber, log logger.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		duelSvc:    duelSvc,
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 来源由网关校验
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *RealtimeHandler) Register(r *gin.Engine) {
	r.GET(constants.DuelWSPath, gintool.WrapHandler(h.DuelWS, h.log))
	r.GET(constants.ActivityWSPath, gintool.WrapWithoutBodyHandler(h.ActivityWS, h.log))
}

type wsMessage struct {
	data  []byte
	final bool
}

// wsFeed 订阅回调与写协程之间的缓冲
type wsFeed struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	send   chan wsMessage
	log    logger.Logger
}

func newWSFeed(parent context.Context, log logger.Logger) *wsFeed {
	ctx, cancel := context.WithCancelCause(parent)
	return &wsFeed{
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan wsMessage, wsSendBuffer),
		log:    log,
	}
}

// push 不阻塞订阅回调, 缓冲写满时断开连接
func (f *wsFeed) push(v any, final bool) {
	data, err := json.Marshal(v)
	if err != nil {
		f.log.WarnContext(f.ctx, "encode realtime message failed", logger.Error(err))
		return
	}
	select {
	case f.send <- wsMessage{data: data, final: final}:
	case <-f.ctx.Done():
	default:
		f.cancel(errSlowConsumer)
	}
}

// DuelWS 推送单个对战的最新状态, 对战结束后关闭连接
func (h *RealtimeHandler) DuelWS(c *gin.Context, param *model.DuelWSParam) {
	ctx := logger.ContextWithFields(c.Request.Context(), logger.String("duel_id", param.DuelID))
	feed := newWSFeed(ctx, h.log)

	// 单调过滤, 快照与订阅回调之间不会出现状态回退
	var (
		mu       sync.Mutex
		lastRank = -1
	)
	pushDuel := func(d *entity.Duel) {
		mu.Lock()
		defer mu.Unlock()
		if d.Status.Rank() < lastRank {
			return
		}
		lastRank = d.Status.Rank()
		feed.push(d, d.Status.IsTerminal())
	}

	// 先订阅再读快照, 中间发生的变更不会丢失
	sub, err := h.subscriber.SubscribeDuel(feed.ctx, param.DuelID, pushDuel)
	if err != nil {
		feed.cancel(err)
		wsConnectionsTotal.WithLabelValues("duel", "rejected").Inc()
		respondError(c, h.log, "DuelWS", err)
		return
	}
	defer sub.Unsubscribe()

	duel, err := h.duelSvc.GetDuel(ctx, param.DuelID)
	if err != nil {
		feed.cancel(err)
		wsConnectionsTotal.WithLabelValues("duel", "rejected").Inc()
		respondError(c, h.log, "DuelWS", err)
		return
	}
	pushDuel(duel)

	h.serve(c, feed, "duel")
}

// ActivityWS 推送全站提交动态
func (h *RealtimeHandler) ActivityWS(c *gin.Context, param *model.ActivityWSParam) {
	feed := newWSFeed(c.Request.Context(), h.log)

	sub, err := h.subscriber.SubscribeActivity(feed.ctx, func(a *realtime.Activity) {
		feed.push(a, false)
	})
	if err != nil {
		feed.cancel(err)
		wsConnectionsTotal.WithLabelValues("activity", "rejected").Inc()
		respondError(c, h.log, "ActivityWS", err)
		return
	}
	defer sub.Unsubscribe()

	h.serve(c, feed, "activity")
}

// serve 升级连接并阻塞直到连接关闭
func (h *RealtimeHandler) serve(c *gin.Context, feed *wsFeed, name string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		feed.cancel(err)
		wsConnectionsTotal.WithLabelValues(name, "upgrade_failed").Inc()
		h.log.WarnContext(feed.ctx, "websocket upgrade failed", logger.Error(err))
		return
	}

	start := time.Now()
	wsActiveConnections.WithLabelValues(name).Inc()
	defer func() {
		wsActiveConnections.WithLabelValues(name).Dec()
		wsConnectionDurationSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		h.readPump(conn, feed)
	}()

	h.writePump(conn, feed)
	_ = conn.Close()
	<-readDone

	reason := "unknown"
	if cause := context.Cause(feed.ctx); cause != nil {
		reason = cause.Error()
	}
	wsConnectionsTotal.WithLabelValues(name, reason).Inc()
	h.log.DebugContext(feed.ctx, "websocket closed", logger.String("feed", name), logger.String("reason", reason))
}

// readPump 只处理 pong 与关闭帧
func (h *RealtimeHandler) readPump(conn *websocket.Conn, feed *wsFeed) {
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			feed.cancel(errClientClosed)
			return
		}
	}
}

func (h *RealtimeHandler) writePump(conn *websocket.Conn, feed *wsFeed) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-feed.ctx.Done():
			h.writeClose(conn, websocket.CloseGoingAway)
			return
		case msg := <-feed.send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				feed.cancel(err)
				return
			}
			if msg.final {
				feed.cancel(errFeedFinished)
				h.writeClose(conn, websocket.CloseNormalClosure)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				feed.cancel(err)
				return
			}
		}
	}
}

func (h *RealtimeHandler) writeClose(conn *websocket.Conn, code int) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""),
		time.Now().Add(wsWriteWait))
}
