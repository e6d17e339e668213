package db

import "github.com/tapcardapp/tapcard/internal/models"

type User = models.User
type CardDesign = models.CardDesign
type Order = models.Order
type OrderStatus = models.OrderStatus
type Transaction = models.Transaction
type TransactionStatus = models.TransactionStatus
type Review = models.Review
type Message = models.Message

const (
	StatusPending   = models.StatusPending
	StatusShipped   = models.StatusShipped
	StatusDelivered = models.StatusDelivered

	TransactionCompleted = models.TransactionCompleted
	TransactionFailed    = models.TransactionFailed
)
