package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"gigmarket/internal/domain/model"
	"gigmarket/internal/logger"
	repo "gigmarket/internal/repository"
)

const (
	maxMessageContent  = 5000
	maxAttachmentBytes = 25 << 20
)

type MessageUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	messages repo.MessageRepository
	files    FileStore
	notifier Notifier
	clock    Clock
	log      logger.Logger
}

func NewMessageUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	messages repo.MessageRepository,
	files FileStore,
	notifier Notifier,
	clock Clock,
	log logger.Logger,
) *MessageUsecase {
	return &MessageUsecase{
		tx:       tx,
		orders:   orders,
		messages: messages,
		files:    files,
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

type SendMessageInput struct {
	Content  string
	Filename string
	File     []byte
	FileType string
	ViewOnce bool
}

type MessageOutput struct {
	ID        int64                  `json:"id"`
	OrderID   int64                  `json:"order_id"`
	SenderID  int64                  `json:"sender_id"`
	Content   *string                `json:"content"`
	FilePath  *string                `json:"file_path"`
	FileType  *model.MessageFileType `json:"file_type"`
	ViewOnce  bool                   `json:"view_once"`
	ReadAt    *time.Time             `json:"read_at"`
	CreatedAt time.Time              `json:"created_at"`
}

type MarkReadOutput struct {
	Updated int64 `json:"updated"`
}

func toMessageOutput(m model.Message) MessageOutput {
	return MessageOutput{
		ID:        m.ID,
		OrderID:   m.OrderID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		FilePath:  m.FilePath,
		FileType:  m.FileType,
		ViewOnce:  m.ViewOnce,
		ReadAt:    m.ReadAt,
		CreatedAt: m.CreatedAt,
	}
}

// 入力チェック。添付ありで種類未指定ならdoc
func parseSendInput(in SendMessageInput) (*string, *model.MessageFileType, error) {
	var content *string
	if c := strings.TrimSpace(in.Content); c != "" {
		if len([]rune(c)) > maxMessageContent {
			return nil, nil, NewHTTPError(http.StatusBadRequest, "content too long")
		}
		content = &c
	}

	hasFile := len(in.File) > 0
	if len(in.File) > maxAttachmentBytes {
		return nil, nil, NewHTTPError(http.StatusBadRequest, "file too large")
	}
	if content == nil && !hasFile {
		return nil, nil, NewHTTPError(http.StatusBadRequest, "content or file is required")
	}

	rawType := strings.TrimSpace(in.FileType)
	if !hasFile {
		if rawType != "" {
			return nil, nil, NewHTTPError(http.StatusBadRequest, "file_type requires a file")
		}
		return content, nil, nil
	}
	if rawType == "" {
		ft := model.FileTypeDoc
		return content, &ft, nil
	}
	ft, ok := model.ParseMessageFileType(rawType)
	if !ok {
		return nil, nil, NewHTTPError(http.StatusBadRequest, "invalid file_type")
	}
	return content, &ft, nil
}

func (u *MessageUsecase) Send(ctx context.Context, actor model.Actor, orderID int64, in SendMessageInput) (MessageOutput, error) {
	if !actor.Valid() {
		return MessageOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return MessageOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	content, fileType, err := parseSendInput(in)
	if err != nil {
		return MessageOutput{}, err
	}

	ctx = logger.WithOrderID(ctx, orderID)
	final := fileType != nil && *fileType == model.FileTypeFinalDelivery

	// 先にロックなしで判定して、通らない送信ではアップロードしない
	pre, err := findOrder(ctx, u.orders, orderID, actor)
	if err != nil {
		return MessageOutput{}, err
	}
	if err := u.checkSender(ctx, u.messages, pre, actor, final); err != nil {
		return MessageOutput{}, err
	}

	// アップロードは注文行ロックの外で行う
	var path *string
	if fileType != nil {
		ref, err := u.files.Store(ctx, CategoryChatAttachments, in.Filename, in.File)
		if err != nil {
			u.log.Errorf(ctx, "store chat attachment failed: %v", err)
			return MessageOutput{}, NewHTTPError(http.StatusInternalServerError, "file store error")
		}
		path = &ref
	}

	now := u.clock.Now()
	var sent model.Message
	var order model.Order

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// final_deliveryの二重送信を注文行ロックで直列化する
		o, err := lockOrder(ctx, r, orderID, actor)
		if err != nil {
			return err
		}
		if err := u.checkSender(ctx, r.Messages(), o, actor, final); err != nil {
			return err
		}

		msg := model.Message{
			OrderID:   o.ID,
			SenderID:  actor.UserID,
			Content:   content,
			FilePath:  path,
			FileType:  fileType,
			ViewOnce:  in.ViewOnce && fileType != nil,
			CreatedAt: now,
		}

		saved, err := r.Messages().Create(ctx, msg)
		if errors.Is(err, repo.ErrDuplicate) {
			return errConflict("final delivery already sent for this order")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		sent, order = saved, o
		return nil
	})
	if err != nil {
		if path != nil {
			removeUpload(ctx, u.files, u.log, *path)
		}
		return MessageOutput{}, err
	}

	// 送った人ではない方に通知
	party := model.PartyClient
	if actor.UserID == order.ClientID {
		party = model.PartyFreelancer
	}
	extra := map[string]string{}
	if sent.IsFinalDelivery() {
		extra["event"] = "final_delivery"
	}
	dispatch(ctx, u.notifier, u.log, model.OrderNotifications(order, model.NotificationMessageReceived,
		[]model.Party{party}, extra))

	return toMessageOutput(sent), nil
}

// 送信できるか。Tx前（ロックなし）とTx内（ロック後）の両方で呼ぶ
func (u *MessageUsecase) checkSender(ctx context.Context, messages repo.MessageRepository, o model.Order, actor model.Actor, final bool) error {
	if !o.IsParticipant(actor.UserID) {
		return NewHTTPError(http.StatusForbidden, "only order participants can send messages")
	}
	if !final {
		return nil
	}
	return checkFinalDelivery(ctx, messages, o, actor)
}

// final_deliveryは注文のフリーランサーだけ、1注文1件
func checkFinalDelivery(ctx context.Context, messages repo.MessageRepository, o model.Order, actor model.Actor) error {
	if actor.Role != model.RoleFreelancer || actor.UserID != o.FreelancerID {
		return NewHTTPError(http.StatusForbidden, "only the order's freelancer can send the final delivery")
	}
	if o.Status == model.OrderStatusCancelled {
		return errInvalidTransition("order already cancelled")
	}
	exists, err := messages.ExistsFinalDelivery(ctx, o.ID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if exists {
		return errConflict("final delivery already sent for this order")
	}
	return nil
}

// 相手からの未読をまとめて既読にする。何度呼んでも成功
func (u *MessageUsecase) MarkRead(ctx context.Context, actor model.Actor, orderID int64) (MarkReadOutput, error) {
	o, err := u.participantOrder(ctx, actor, orderID)
	if err != nil {
		return MarkReadOutput{}, err
	}
	if !o.IsParticipant(actor.UserID) {
		return MarkReadOutput{}, NewHTTPError(http.StatusForbidden, "only order participants can read messages")
	}
	n, err := u.messages.MarkRead(ctx, o.ID, actor.UserID, u.clock.Now())
	if err != nil {
		return MarkReadOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return MarkReadOutput{Updated: n}, nil
}

func (u *MessageUsecase) List(ctx context.Context, actor model.Actor, orderID int64) ([]MessageOutput, error) {
	o, err := u.participantOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	items, err := u.messages.ListByOrder(ctx, o.ID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	outs := make([]MessageOutput, 0, len(items))
	for _, m := range items {
		outs = append(outs, toMessageOutput(m.VisibleTo(actor.UserID)))
	}
	return outs, nil
}

func (u *MessageUsecase) participantOrder(ctx context.Context, actor model.Actor, orderID int64) (model.Order, error) {
	if !actor.Valid() {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return findOrder(ctx, u.orders, orderID, actor)
}
