package bot

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Client struct {
	api  *tgbotapi.BotAPI
	Self *tgbotapi.User
}

func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token cannot be empty")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api instance: %w", err)
	}

	api.Debug = false

	log.Printf("Verifying API token...")
	ok, err := api.GetMe()
	if err != nil {
		return nil, fmt.Errorf("failed to verify bot token with GetMe(): %w", err)
	}
	log.Printf("Token verified successfully.")

	client := &Client{
		api:  api,
		Self: &ok,
	}

	return client, nil
}

func (c *Client) SendMessage(chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)

	msg.ParseMode = ""

	if markup != nil {
		msg.ReplyMarkup = markup
	}

	sentMsg, err := c.api.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to send message: %w", err)
	}
	return sentMsg, nil
}

// SendPhoto uploads a local image file with an optional caption and keyboard.
func (c *Client) SendPhoto(chatID int64, path string, caption string, markup interface{}) (tgbotapi.Message, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	if markup != nil {
		photo.ReplyMarkup = markup
	}

	sentMsg, err := c.api.Send(photo)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to send photo %s: %w", path, err)
	}
	return sentMsg, nil
}

func (c *Client) SendVenue(chatID int64, title, address string, latitude, longitude float64, markup interface{}) (tgbotapi.Message, error) {
	venue := tgbotapi.NewVenue(chatID, title, address, latitude, longitude)
	if markup != nil {
		venue.ReplyMarkup = markup
	}

	sentMsg, err := c.api.Send(venue)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to send venue: %w", err)
	}
	return sentMsg, nil
}

func (c *Client) AnswerCallback(callbackID string, text string) error {
	if callbackID == "" {
		return fmt.Errorf("callbackID cannot be empty")
	}
	callbackCfg := tgbotapi.NewCallback(callbackID, text)

	_, err := c.api.Request(callbackCfg)
	if err != nil {
		return fmt.Errorf("failed to answer callback query %s: %w", callbackID, err)
	}
	return nil
}

func (c *Client) GetUpdatesChan(timeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	u.AllowedUpdates = []string{"message", "callback_query"}

	return c.api.GetUpdatesChan(u)
}

// StopReceivingUpdates ends long polling; the updates channel is closed afterwards.
func (c *Client) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}
