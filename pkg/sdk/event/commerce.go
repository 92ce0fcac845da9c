package event

import (
	"github.com/jamiepg18/atinternet-android-sdk/pkg/sdk/param"
)

// Properties of an e-commerce object. Keys carry their type prefix, as in
// "s:id", "n:quantity" or "f:priceTaxIncluded".
type Properties map[string]any

func (p Properties) clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Record is one entry of the events parameter
type Record struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// CartAwaitingPayment is sent when a cart is validated and waits for payment.
// It also produces one product.awaiting_payment record per product.
type CartAwaitingPayment struct {
	Cart        Properties
	Transaction Properties
	Shipping    Properties
	Payment     Properties
	Products    []Properties
}

func (CartAwaitingPayment) Kind() Kind { return KindCartAwaitingPayment }
func (CartAwaitingPayment) sealed() {}

func (c CartAwaitingPayment) Validate() error {
	return validateCommerce(c.Cart, c.Products)
}

func (c CartAwaitingPayment) records() []Record {
	data := map[string]any{}
	putIfAny(data, "cart", c.Cart)
	putIfAny(data, "payment", c.Payment)
	putIfAny(data, "shipping", c.Shipping)
	putIfAny(data, "transaction", c.Transaction)

	out := []Record{{Name: string(KindCartAwaitingPayment), Data: data}}
	for _, p := range c.Products {
		cart := Properties{"s:id": c.Cart["s:id"]}
		if v, ok := c.Cart["s:version"]; ok {
			cart["s:version"] = v
		}
		out = append(out, Record{
			Name: "product.awaiting_payment",
			Data: map[string]any{"cart": cart, "product": p.clone()},
		})
	}
	return out
}

// TransactionConfirmation is sent once a payment succeeded.
// It also produces a cart.confirmation record and one product.purchased per product.
type TransactionConfirmation struct {
	Cart             Properties
	Transaction      Properties
	Shipping         Properties
	Payment          Properties
	Customer         Properties
	PromotionalCodes []string
	Products         []Properties
}

func (TransactionConfirmation) Kind() Kind { return KindTransactionConfirmation }
func (TransactionConfirmation) sealed() {}

func (t TransactionConfirmation) Validate() error {
	if t.Transaction["s:id"] == nil {
		return invalid("transaction s:id is required")
	}
	return validateCommerce(t.Cart, t.Products)
}

func (t TransactionConfirmation) records() []Record {
	codes := t.PromotionalCodes
	if codes == nil {
		codes = []string{}
	}
	out := []Record{{
		Name: string(KindTransactionConfirmation),
		Data: map[string]any{
			"cart":                orEmpty(t.Cart),
			"payment":             orEmpty(t.Payment),
			"customer":            orEmpty(t.Customer),
			"shipping":            orEmpty(t.Shipping),
			"transaction":         orEmpty(t.Transaction),
			"a:s:promotionalCode": codes,
		},
	}, {
		Name: "cart.confirmation",
		Data: map[string]any{"cart": orEmpty(t.Cart), "transaction": orEmpty(t.Transaction)},
	}}

	for _, p := range t.Products {
		out = append(out, Record{
			Name: "product.purchased",
			Data: map[string]any{
				"cart":        Properties{"s:id": t.Cart["s:id"]},
				"transaction": Properties{"s:id": t.Transaction["s:id"]},
				"product":     p.clone(),
			},
		})
	}
	return out
}

func validateCommerce(cart Properties, products []Properties) error {
	if cart["s:id"] == nil {
		return invalid("cart s:id is required")
	}
	for i, p := range products {
		if p["s:id"] == nil {
			return invalid("product %d has no s:id", i)
		}
	}
	return nil
}

// appendEvents adds records to the events JSON array of the next hit
func appendEvents(buf *param.Buffer, records []Record) error {
	return buf.Append(param.Volatile, ParamEvents, param.JSON(records), param.Options{
		Type:   param.TypeJSON,
		Encode: true,
	})
}

func putIfAny(data map[string]any, key string, p Properties) {
	if len(p) > 0 {
		data[key] = p.clone()
	}
}

func orEmpty(p Properties) Properties {
	if p == nil {
		return Properties{}
	}
	return p.clone()
}
