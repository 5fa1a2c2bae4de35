package pipeline

import (
	"fmt"

	"github.com/AbdusM/lux-story/engine/echoes"
	"github.com/AbdusM/lux-story/types"
)

// giftDelivery pops a ready gift for the current character, consuming
// it exactly once. Delivery narrates through the echo slot, so a
// turn whose echo is already claimed leaves the gift queued.
type giftDelivery struct{}

func (giftDelivery) Name() string { return "gift_delivery" }

func (giftDelivery) Run(tc *Context) {
	if tc.Slot.Filled() {
		return
	}
	gifts := echoes.DecodeGifts(tc.Snapshot(KeyGifts))
	gift, rest, ok := echoes.PopGift(gifts, tc.Character)
	if !ok {
		return
	}

	text := gift.Note
	if text == "" {
		text = fmt.Sprintf("%s left something for you: %s.", tc.World.Name(gift.Source), gift.Item)
	}
	if !tc.Slot.TrySet("gift_delivery", types.Echo{Text: text, Emotion: "warm"}) {
		return
	}
	tc.Gift = &gift
	tc.Write(KeyGifts, echoes.EncodeGifts(rest))
	tc.Log.Debug("gift delivered", "source", gift.Source, "target", gift.Target, "item", gift.Item)
}
