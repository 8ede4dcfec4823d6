package services

import (
	"context"
	"encoding/json"
	"log"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
	"github.com/Kalwarein/edu-harmony-link/internal/repository"
)

// PushNotifier delivers Web Push notifications to subscribed browsers. A
// nil *PushNotifier is valid and does nothing, so callers never have to
// guard on VAPID keys being configured.
type PushNotifier struct {
	subscriptionRepo *repository.PushSubscriptionRepository
	vapidPublicKey   string
	vapidPrivateKey  string
	subscriber       string
}

func NewPushNotifier(
	subscriptionRepo *repository.PushSubscriptionRepository,
	vapidPublicKey string,
	vapidPrivateKey string,
	subscriber string,
) *PushNotifier {
	if vapidPublicKey == "" || vapidPrivateKey == "" {
		return nil
	}
	return &PushNotifier{
		subscriptionRepo: subscriptionRepo,
		vapidPublicKey:   vapidPublicKey,
		vapidPrivateKey:  vapidPrivateKey,
		subscriber:       subscriber,
	}
}

func (n *PushNotifier) VAPIDPublicKey() string {
	if n == nil {
		return ""
	}
	return n.vapidPublicKey
}

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// NotifyUser pushes to every active subscription of one user.
func (n *PushNotifier) NotifyUser(ctx context.Context, userID, title, body, url string) {
	if n == nil {
		return
	}

	subscriptions, err := n.subscriptionRepo.ListActiveForUser(ctx, userID)
	if err != nil {
		log.Printf("push: list subscriptions for user %s: %v", userID, err)
		return
	}
	n.send(subscriptions, title, body, url)
}

// NotifyAll pushes to every active subscription.
func (n *PushNotifier) NotifyAll(ctx context.Context, title, body, url string) {
	if n == nil {
		return
	}

	subscriptions, err := n.subscriptionRepo.ListAllActive(ctx)
	if err != nil {
		log.Printf("push: list subscriptions: %v", err)
		return
	}
	n.send(subscriptions, title, body, url)
}

func (n *PushNotifier) send(subscriptions []models.PushSubscription, title, body, url string) {
	if len(subscriptions) == 0 {
		return
	}

	data, err := json.Marshal(pushPayload{Title: title, Body: body, URL: url})
	if err != nil {
		log.Printf("push: marshal payload: %v", err)
		return
	}

	for _, subscription := range subscriptions {
		go n.sendToSubscription(subscription, data)
	}
}

func (n *PushNotifier) sendToSubscription(subscription models.PushSubscription, data []byte) {
	s := &webpush.Subscription{
		Endpoint: subscription.Endpoint,
		Keys: webpush.Keys{
			P256dh: subscription.KeyP256dh,
			Auth:   subscription.KeyAuth,
		},
	}

	resp, err := webpush.SendNotification(data, s, &webpush.Options{
		VAPIDPublicKey:  n.vapidPublicKey,
		VAPIDPrivateKey: n.vapidPrivateKey,
		Subscriber:      n.subscriber,
		TTL:             86400,
	})
	if err != nil {
		log.Printf("push: send to %s: %v", subscription.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// 404/410 means the browser dropped the subscription
	if resp.StatusCode == 404 || resp.StatusCode == 410 {
		if err := n.subscriptionRepo.RevokeEndpoint(context.Background(), subscription.Endpoint); err != nil {
			log.Printf("push: revoke %s: %v", subscription.Endpoint, err)
		}
	}
}
