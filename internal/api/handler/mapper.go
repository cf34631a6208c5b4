package handler

import (
	"strings"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

func toCreateOrderInput(req createOrderRequest, idempotencyKey string) ports.CreateOrderInput {
	return ports.CreateOrderInput{
		Selection: domain.Selection{
			ServiceID: req.ServiceID,
			PackageID: req.PackageID,
			AddonIDs:  req.Options,
		},
		Brief: domain.Brief{
			CompanyName: strings.TrimSpace(req.Brief.CompanyName),
			Slogan:      strings.TrimSpace(req.Brief.Slogan),
			Colors:      strings.TrimSpace(req.Brief.Colors),
			Style:       strings.TrimSpace(req.Brief.Style),
			Description: strings.TrimSpace(req.Brief.Description),
			References:  req.Brief.References,
		},
		Payment: domain.Payment{
			Method:    domain.PaymentMethod(req.PaymentMethod),
			Reference: strings.TrimSpace(req.PaymentID),
			Proof:     req.PaymentProof,
		},
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
}

func toOrderPatch(req patchOrderRequest) ports.OrderPatch {
	var p ports.OrderPatch
	if req.Status != nil {
		s := domain.OrderStatus(*req.Status)
		p.Status = &s
	}
	if req.PaymentStatus != nil {
		s := domain.PaymentStatus(*req.PaymentStatus)
		p.PaymentStatus = &s
	}
	if req.Priority != nil {
		pr := domain.Priority(*req.Priority)
		p.Priority = &pr
	}
	p.AssignedTo = req.AssignedTo
	if len(req.DeliveryFiles) > 0 {
		p.DeliveryFiles = make([]domain.DeliveryFile, 0, len(req.DeliveryFiles))
		for _, f := range req.DeliveryFiles {
			p.DeliveryFiles = append(p.DeliveryFiles, domain.DeliveryFile{Name: f.Name, URL: f.URL})
		}
	}
	if req.Feedback != nil {
		p.Feedback = &ports.FeedbackInput{Rating: req.Feedback.Rating, Comment: req.Feedback.Comment}
	}
	return p
}
