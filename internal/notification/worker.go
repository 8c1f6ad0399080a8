// Package notification pushes staff call alerts to subscribed browsers.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"tableorder-agent/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Job is one staff call to announce to a store's subscribers.
type Job struct {
	StoreID string
	Call    model.Call
}

// Payload is the JSON body delivered to the service worker.
type Payload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	CallID string `json:"callId"`
	Table  string `json:"table,omitempty"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*8),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.sendNotificationsForCall(ctx, job)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job, blocking while the queue is full.
func (wp *WorkerPool) Dispatch(job Job) {
	wp.jobs <- job
}

// NewCall queues an alert without blocking the caller. Alerts are dropped
// when the queue is full.
func (wp *WorkerPool) NewCall(storeID string, call model.Call) {
	select {
	case wp.jobs <- Job{StoreID: storeID, Call: call}:
	default:
		log.Printf("Alert queue full; dropping call %s", call.ID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

// Message renders the alert text for a call.
func Message(call model.Call) Payload {
	table := call.TableNumber
	if table == "" {
		table = call.TableID
	}
	body := fmt.Sprintf("Table %s: %s", table, callLabel(call.Type))
	if call.Type == model.CallCustom && call.Message != "" {
		body = fmt.Sprintf("Table %s: %s", table, call.Message)
	}
	return Payload{Title: "Staff call", Body: body, CallID: call.ID, Table: table}
}

func callLabel(t model.CallType) string {
	switch t {
	case model.CallService:
		return "service requested"
	case model.CallBill:
		return "bill requested"
	case model.CallHelp:
		return "needs help"
	}
	return "staff call"
}

func (wp *WorkerPool) sendNotificationsForCall(ctx context.Context, job Job) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("store_id = ?", job.StoreID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for store %s: %v", job.StoreID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(Message(job.Call))
	if err != nil {
		log.Printf("Error encoding alert for call %s: %v", job.Call.ID, err)
		return
	}
	log.Printf("Sending %d notifications for call %s", len(subscriptions), job.Call.ID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
