package actor

import (
	"bytes"
	"context"
	"errors"
	"html"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"chatshop/internal/blob"
	"chatshop/internal/conversation"
	"chatshop/internal/domain"
	"chatshop/internal/i18n"
	"chatshop/internal/shop"
	"chatshop/internal/transport/chat"
)

func argsValue(v string) i18n.Args { return i18n.Args{"value": html.EscapeString(v)} }

var pricePattern = regexp.MustCompile(`([0-9]+(?:[.,][0-9]{1,2})?|[Xx])`)

// productsMenu picks a product to edit, or adding or deleting one.
func (a *Actor) productsMenu(ctx context.Context) error {
	products, err := a.shop.Catalog(ctx)
	if err != nil {
		return err
	}
	labels := []string{a.loc.Get("menu_cancel"), a.loc.Get("menu_add_product"), a.loc.Get("menu_delete_product")}
	for _, p := range products {
		labels = append(labels, p.Name)
	}
	if _, err := a.sayKeyboard(ctx, a.loc.Get("conversation_admin_select_product"), keyboard(labels...)); err != nil {
		return err
	}
	choice, err := a.conv.Text(ctx, true, labels...)
	if err != nil {
		return err
	}
	switch choice {
	case a.loc.Get("menu_add_product"):
		return a.editProduct(ctx, nil)
	case a.loc.Get("menu_delete_product"):
		return a.deleteProduct(ctx, products)
	}
	for i := range products {
		if products[i].Name == choice {
			return a.editProduct(ctx, &products[i])
		}
	}
	return nil
}

// ask prompts for a free text value. When editing, the current value is
// shown with a skip button and skipping returns current.
func (a *Actor) ask(ctx context.Context, prompt string, editing bool, current string) (string, error) {
	if _, err := a.say(ctx, prompt); err != nil {
		return "", err
	}
	if editing {
		if _, err := a.sayInline(ctx, a.loc.Get("edit_current_value", argsValue(current)), a.skipInline()); err != nil {
			return "", err
		}
	}
	v, err := a.conv.Text(ctx, editing)
	if editing && errors.Is(err, conversation.ErrCancelled) {
		return current, nil
	}
	return v, err
}

// editProduct creates a product when p is nil, otherwise edits p. Every
// field of an existing product can be skipped.
func (a *Actor) editProduct(ctx context.Context, p *domain.Product) error {
	editing := p != nil
	if !editing {
		p = &domain.Product{}
	}

	for {
		name, err := a.ask(ctx, a.loc.Get("ask_product_name"), editing, p.Name)
		if err != nil {
			return err
		}
		taken, err := a.shop.NameTaken(ctx, name, p.ID)
		if err != nil {
			return err
		}
		if !taken {
			p.Name = name
			break
		}
		if _, err := a.say(ctx, a.loc.Get("error_duplicate_name")); err != nil {
			return err
		}
	}

	desc, err := a.ask(ctx, a.loc.Get("ask_product_description"), editing, p.Description)
	if err != nil {
		return err
	}
	p.Description = desc

	if err := a.askPrice(ctx, p, editing); err != nil {
		return err
	}

	if _, err := a.sayInline(ctx, a.loc.Get("ask_product_image"), a.skipInline()); err != nil {
		return err
	}
	photos, err := a.conv.Photo(ctx, true)
	switch {
	case errors.Is(err, conversation.ErrCancelled):
	case err != nil:
		return err
	default:
		if err := a.attachImage(ctx, p, photos); err != nil {
			return err
		}
	}

	err = a.shop.SaveProduct(ctx, p)
	if errors.Is(err, shop.ErrDuplicateProductName) {
		_, err = a.say(ctx, a.loc.Get("error_duplicate_name"))
		return err
	}
	if err != nil {
		return err
	}
	a.log.Info("product saved", zap.Uint64("product_id", p.ID))
	_, err = a.say(ctx, a.loc.Get("success_product_edited"))
	return err
}

// askPrice reads a price or X for not for sale. Skipping keeps the current
// price, or leaves a new product not for sale.
func (a *Actor) askPrice(ctx context.Context, p *domain.Product, editing bool) error {
	if _, err := a.say(ctx, a.loc.Get("ask_product_price")); err != nil {
		return err
	}
	if editing {
		current := a.loc.Get("text_not_for_sale")
		if p.Price != nil {
			current = a.money(*p.Price)
		}
		if _, err := a.sayInline(ctx, a.loc.Get("edit_current_value", argsValue(current)), a.skipInline()); err != nil {
			return err
		}
	}
	for {
		raw, err := a.conv.Regex(ctx, pricePattern, true)
		if errors.Is(err, conversation.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.EqualFold(raw, "x") {
			p.Price = nil
			return nil
		}
		price, err := a.set.Currency.Parse(raw)
		if err != nil {
			continue
		}
		p.Price = &price
		return nil
	}
}

// attachImage uses the largest photo size as product image and mirrors its
// bytes into blob storage. A failed mirror leaves the product without image.
func (a *Actor) attachImage(ctx context.Context, p *domain.Product, photos []chat.PhotoSize) error {
	largest := photos[0]
	for _, ph := range photos[1:] {
		if ph.Width > largest.Width {
			largest = ph
		}
	}
	if _, err := a.say(ctx, a.loc.Get("downloading_image")); err != nil {
		return err
	}
	key, err := a.storeImage(ctx, largest.FileID)
	if err != nil {
		a.log.Warn("product image not saved", zap.String("file_id", largest.FileID), zap.Error(err))
		_, err = a.say(ctx, a.loc.Get("error_image_not_saved"))
		return err
	}
	p.ImageFileID, p.ImageKey = largest.FileID, key
	return nil
}

func (a *Actor) storeImage(ctx context.Context, fileID string) (string, error) {
	if a.deps.Images == nil {
		return "", nil
	}
	data, err := a.tr.Download(ctx, fileID)
	if err != nil {
		return "", err
	}
	res, err := a.deps.Images.Put(ctx, bytes.NewReader(data), blob.PutInput{
		Filename:    fileID + ".jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
	})
	if err != nil {
		return "", err
	}
	return res.Key, nil
}

func (a *Actor) deleteProduct(ctx context.Context, products []domain.Product) error {
	labels := []string{a.loc.Get("menu_cancel")}
	for _, p := range products {
		labels = append(labels, p.Name)
	}
	if _, err := a.sayKeyboard(ctx, a.loc.Get("conversation_admin_select_product_to_delete"), keyboard(labels...)); err != nil {
		return err
	}
	choice, err := a.conv.Text(ctx, true, labels...)
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.Name != choice {
			continue
		}
		err := a.shop.DeleteProduct(ctx, p.ID)
		if errors.Is(err, shop.ErrNotFound) {
			_, err = a.say(ctx, a.loc.Get("error_product_not_found"))
			return err
		}
		if err != nil {
			return err
		}
		a.log.Info("product deleted", zap.Uint64("product_id", p.ID))
		_, err = a.say(ctx, a.loc.Get("success_product_deleted"))
		return err
	}
	return nil
}
