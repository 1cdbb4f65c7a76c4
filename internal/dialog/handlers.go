package dialog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mmynk/pricebook/internal/identity"
	"github.com/mmynk/pricebook/internal/models"
	"github.com/mmynk/pricebook/internal/money"
	"github.com/mmynk/pricebook/internal/storage"
	"github.com/mmynk/pricebook/internal/unitprice"
)

const productFormatHint = "Send the product in one line:\n" +
	"`name, type, brand, unit, price[, notes]`\n\n" +
	"Example: `Rice, White, BrandX, 5 kg, 25.99`"

var errTooFewFields = errors.New("too few fields")

// onCancel discards the current flow. Shared by every state.
func (m *Machine) onCancel(t *turn) error {
	t.rest()
	t.reply("Operation cancelled.", KeyboardMain)
	return nil
}

// onMenu starts the selected flow from any state, abandoning the current one.
func (m *Machine) onMenu(t *turn) error {
	t.rest()
	switch t.command {
	case CmdStart:
		t.reply(fmt.Sprintf("👋 Welcome to Pricebook!\n\n"+
			"Record what you pay for groceries and compare unit prices with your household.\n\n"+
			"Your group code is `%s`. Share it so others can join your list.", t.groupID), KeyboardMain)
	case CmdHelp:
		t.reply(helpText, KeyboardMain,
			MenuAction(LabelShare, CmdShare),
			MenuAction(LabelJoin, CmdJoin),
		)
	case CmdAdd:
		t.moveTo(AwaitProductData)
		t.reply(productFormatHint, KeyboardCancel)
	case CmdEdit:
		t.moveTo(AwaitEditOrDeleteSelection)
		t.reply("Which product? Send its name (or part of it).", KeyboardCancel)
	case CmdList:
		return m.listProducts(t)
	case CmdSearch:
		t.moveTo(AwaitSearchTerm)
		t.reply("What are you looking for? Send a product name.", KeyboardCancel)
	case CmdShare:
		t.reply(fmt.Sprintf("👪 Your group code is:\n\n`%s`\n\n"+
			"Ask your household to tap %q and send this code.", t.groupID, LabelJoin), KeyboardMain)
	case CmdJoin:
		t.moveTo(AwaitInviteCodeInput)
		t.reply("Send the group code you received.", KeyboardCancel)
	default:
		t.result.Outcome = OutcomeValidation
		t.reply("Unknown command. Choose an option below.", KeyboardMain)
	}
	return nil
}

// onRecordAction handles the inline Edit Price / Delete shortcuts of a record card.
// The record is re-checked against the caller's group every time.
func (m *Machine) onRecordAction(t *turn) error {
	t.rest()

	var next State
	id, ok := strings.CutPrefix(t.action, actionEdit)
	if ok {
		next = AwaitNewPrice
	} else if id, ok = strings.CutPrefix(t.action, actionDelete); ok {
		next = ConfirmDeletion
	} else {
		t.result.Outcome = OutcomeValidation
		t.reply("That button is no longer valid.", KeyboardMain)
		return nil
	}

	p, err := m.findProduct(t, id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	t.session.SelectedID = p.ID
	t.session.SelectedName = p.Name
	m.promptFor(t, next)
	return nil
}

func (m *Machine) onMainMenuText(t *turn) error {
	switch {
	case t.text == "":
		t.reply("Choose an option below.", KeyboardMain)
		return nil
	case isConfirm(t.text):
		// A confirmation with no pending flow, e.g. a replayed event.
		t.result.Outcome = OutcomeNotFound
		t.reply("There is nothing to confirm.", KeyboardMain)
		return nil
	case t.text == LabelEditPrice || t.text == LabelDelete:
		t.result.Outcome = OutcomeNotFound
		t.reply("Select a product first with "+LabelEdit+".", KeyboardMain)
		return nil
	}
	return m.search(t, t.text)
}

func (m *Machine) onProductData(t *turn) error {
	p, err := parseProductLine(t.text)
	if err != nil {
		t.result.Outcome = OutcomeValidation
		hint := "❌ I couldn't read that."
		if errors.Is(err, money.ErrInvalidPrice) {
			hint = "❌ The price is not a valid number. Use a dot for decimals, e.g. 25.99."
		}
		t.reply(hint+"\n\n"+productFormatHint, KeyboardCancel)
		return nil
	}

	b := unitprice.Normalize(p.Unit, p.Price.InexactFloat64())
	p.UnitPrice = unitprice.Headline(b)
	t.session.Draft = p
	t.moveTo(ConfirmProduct)
	t.reply(renderConfirmation(p, b), KeyboardConfirm)
	return nil
}

func (m *Machine) onConfirmProduct(t *turn) error {
	if !isConfirm(t.text) || t.session.Draft == nil {
		return m.onCancel(t)
	}

	p := *t.session.Draft
	p.GroupID = t.groupID
	now := m.now().Unix()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := m.store.CreateProduct(t.ctx, &p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	m.logger.Info("Product saved", "user_id", t.userID, "group_id", p.GroupID, "product_id", p.ID)
	t.rest()
	t.reply(fmt.Sprintf("✅ Saved *%s* at %s (%s).", p.Name, money.Display(p.Price), p.UnitPrice), KeyboardMain)
	return nil
}

func (m *Machine) onSelectionTerm(t *turn) error {
	if t.text == "" {
		t.result.Outcome = OutcomeValidation
		t.reply("Send a product name.", KeyboardCancel)
		return nil
	}

	products, err := m.store.ListProducts(t.ctx, storage.ProductQuery{
		GroupID:      t.groupID,
		NameContains: t.text,
		Limit:        selectLimit,
	})
	if err != nil {
		return fmt.Errorf("select products: %w", err)
	}

	switch len(products) {
	case 0:
		t.rest()
		t.result.Outcome = OutcomeNotFound
		t.reply(fmt.Sprintf("No products found matching %q.", t.text), KeyboardMain)
	case 1:
		m.selectProduct(t, products[0])
	default:
		ids := make([]string, len(products))
		for i, p := range products {
			ids[i] = p.ID
		}
		t.session.Candidates = ids
		t.moveTo(AwaitEntryChoice)
		t.reply(renderCandidates(products), KeyboardCancel)
	}
	return nil
}

func (m *Machine) onEntryChoice(t *turn) error {
	n, err := strconv.Atoi(t.text)
	if err != nil || n < 1 || n > len(t.session.Candidates) {
		t.result.Outcome = OutcomeValidation
		t.reply(fmt.Sprintf("Send a number between 1 and %d.", len(t.session.Candidates)), KeyboardCancel)
		return nil
	}

	p, err := m.findProduct(t, t.session.Candidates[n-1])
	if err != nil || p == nil {
		return err
	}
	m.selectProduct(t, p)
	return nil
}

func (m *Machine) onEditDeleteAction(t *turn) error {
	switch {
	case t.text == LabelEditPrice || strings.EqualFold(t.text, "edit price") || strings.EqualFold(t.text, "edit"):
		m.promptFor(t, AwaitNewPrice)
	case t.text == LabelDelete || strings.EqualFold(t.text, "delete"):
		m.promptFor(t, ConfirmDeletion)
	default:
		t.result.Outcome = OutcomeValidation
		t.reply("Choose "+LabelEditPrice+" or "+LabelDelete+".", KeyboardEditDelete)
	}
	return nil
}

func (m *Machine) onNewPrice(t *turn) error {
	price, err := money.ParsePrice(t.text)
	if err != nil {
		t.result.Outcome = OutcomeValidation
		t.reply("❌ Send a valid price, e.g. 30.00.", KeyboardCancel)
		return nil
	}

	p, err := m.findProduct(t, t.session.SelectedID)
	if err != nil || p == nil {
		return err
	}

	headline := unitprice.Headline(unitprice.Normalize(p.Unit, price.InexactFloat64()))
	n, err := m.store.UpdateProductPrice(t.ctx, t.groupID, p.ID, price, headline, m.now().Unix())
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	t.rest()
	if n == 0 {
		m.notFound(t)
		return nil
	}

	m.logger.Info("Product price updated", "user_id", t.userID, "group_id", t.groupID, "product_id", p.ID)
	t.reply(fmt.Sprintf("✅ *%s* now costs %s (%s).", p.Name, money.Display(price), headline), KeyboardMain)
	return nil
}

func (m *Machine) onConfirmDeletion(t *turn) error {
	if !isConfirm(t.text) {
		t.rest()
		t.reply("Deletion cancelled.", KeyboardMain)
		return nil
	}

	id, name := t.session.SelectedID, t.session.SelectedName
	t.rest()
	n, err := m.store.DeleteProduct(t.ctx, t.groupID, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		m.notFound(t)
		return nil
	}

	m.logger.Info("Product deleted", "user_id", t.userID, "group_id", t.groupID, "product_id", id)
	t.reply(fmt.Sprintf("🗑️ Deleted *%s*.", name), KeyboardMain)
	return nil
}

func (m *Machine) onSearchTerm(t *turn) error {
	if t.text == "" {
		t.result.Outcome = OutcomeValidation
		t.reply("Send a product name to search for.", KeyboardCancel)
		return nil
	}
	return m.search(t, t.text)
}

func (m *Machine) onInviteCode(t *turn) error {
	t.rest()
	res, err := m.resolver.JoinGroup(t.ctx, t.userID, t.text)
	if errors.Is(err, identity.ErrInviteNotFound) {
		t.result.Outcome = OutcomeNotFound
		t.reply("❌ That code doesn't match any group. Check it and try again.", KeyboardMain)
		return nil
	}
	if err != nil {
		return fmt.Errorf("join group: %w", err)
	}
	if res.AlreadyMember {
		t.reply("You are already in this group.", KeyboardMain)
		return nil
	}

	t.groupID = res.GroupID
	t.reply("✅ You joined the group! Here is its list:", KeyboardNone)
	return m.listProducts(t)
}

// selectProduct shows the record card and waits for Edit Price or Delete.
func (m *Machine) selectProduct(t *turn, p *models.Product) {
	t.session.Candidates = nil
	t.session.SelectedID = p.ID
	t.session.SelectedName = p.Name
	t.moveTo(AwaitEditDeleteAction)
	t.reply(renderCard(p)+"\n\nWhat would you like to do?", KeyboardEditDelete,
		EditAction(p.ID),
		DeleteAction(p.ID),
	)
}

func (m *Machine) promptFor(t *turn, next State) {
	t.moveTo(next)
	switch next {
	case AwaitNewPrice:
		t.reply(fmt.Sprintf("Send the new price for *%s*.", t.session.SelectedName), KeyboardCancel)
	case ConfirmDeletion:
		t.reply(fmt.Sprintf("Delete *%s*? This cannot be undone.", t.session.SelectedName), KeyboardConfirm)
	}
}

// findProduct loads a record of the caller's group. A missing record resets the
// session and reports NotFound; the returned product is then nil.
func (m *Machine) findProduct(t *turn, id string) (*models.Product, error) {
	if id == "" {
		t.rest()
		m.notFound(t)
		return nil, nil
	}
	products, err := m.store.ListProducts(t.ctx, storage.ProductQuery{GroupID: t.groupID, ID: id, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if len(products) == 0 {
		t.rest()
		m.notFound(t)
		return nil, nil
	}
	return products[0], nil
}

func (m *Machine) notFound(t *turn) {
	t.result.Outcome = OutcomeNotFound
	t.reply("❌ That product no longer exists in your group.", KeyboardMain)
}

func (m *Machine) listProducts(t *turn) error {
	t.rest()
	products, err := m.store.ListProducts(t.ctx, storage.ProductQuery{GroupID: t.groupID, Limit: listLimit})
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		t.reply("Your list is empty. Tap "+LabelAdd+" to record a purchase.", KeyboardMain)
		return nil
	}
	t.reply(renderProducts("📋 Latest products", products), KeyboardMain)
	return nil
}

func (m *Machine) search(t *turn, term string) error {
	t.rest()
	products, err := m.store.ListProducts(t.ctx, storage.ProductQuery{
		GroupID:      t.groupID,
		NameContains: term,
		Limit:        searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search products: %w", err)
	}
	if len(products) == 0 {
		t.result.Outcome = OutcomeNotFound
		t.reply(fmt.Sprintf("No products found matching %q.", term), KeyboardMain)
		return nil
	}
	t.reply(renderProducts(fmt.Sprintf("🔍 Results for %q", term), products), KeyboardMain)
	return nil
}

// parseProductLine reads "name, type, brand, unit, price[, notes]".
// Anything after the price is kept as notes.
func parseProductLine(line string) (*models.Product, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return nil, errTooFewFields
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[0] == "" {
		return nil, errTooFewFields
	}

	price, err := money.ParsePrice(fields[4])
	if err != nil {
		return nil, err
	}

	return &models.Product{
		Name:  displayCase(fields[0]),
		Type:  displayCase(fields[1]),
		Brand: displayCase(fields[2]),
		Unit:  fields[3],
		Price: price,
		Notes: strings.Join(fields[5:], ", "),
	}, nil
}

func displayCase(s string) string {
	// Casers are stateful; one per call.
	return cases.Title(language.Und, cases.NoLower).String(s)
}
