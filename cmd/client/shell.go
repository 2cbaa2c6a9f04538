package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ascentsys/retail-client/internal/catalog"
	"github.com/ascentsys/retail-client/internal/session"
	"github.com/ascentsys/retail-client/pkg/enums"
	pkgerrors "github.com/ascentsys/retail-client/pkg/errors"
)

// runShell drives the interactive loop. Every server round trip blocks the
// loop, which is the intended single-caller usage of the core.
func runShell(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	if err := loginLoop(ctx, sess, scanner, out); err != nil {
		return err
	}

	fmt.Fprintln(out, "type 'help' for commands")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			printHelp(out)
		case "list":
			category := enums.ProductCategoryAll
			if len(fields) > 1 {
				parsed, err := enums.ParseProductCategory(fields[1])
				if err != nil {
					fmt.Fprintln(out, err)
					continue
				}
				category = parsed
			}
			if _, err := sess.LoadCatalog(ctx); err != nil {
				report(out, err)
				continue
			}
			for _, record := range sess.FilterCatalog(category) {
				stock := "unlimited"
				if record.Stock != catalog.StockUnlimited {
					stock = strconv.Itoa(record.Stock)
				}
				fmt.Fprintf(out, "%-8s %-24s %-16s %8s  stock %s\n",
					record.ID, record.Name, record.Category, record.Price.StringFixed(2), stock)
			}
		case "add":
			id, qty, err := parseIDQty(fields)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if err := sess.AddToCart(id, qty); err != nil {
				report(out, err)
			}
		case "set":
			id, qty, err := parseIDQty(fields)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if err := sess.SetCartQuantity(id, qty); err != nil {
				report(out, err)
			}
		case "remove":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: remove <id>")
				continue
			}
			sess.RemoveFromCart(fields[1])
		case "cart":
			for _, entry := range sess.CartItems() {
				fmt.Fprintf(out, "%-8s %-24s %8s x %d\n",
					entry.ID, entry.Name, entry.UnitPrice.StringFixed(2), entry.Quantity)
			}
			fmt.Fprintf(out, "total: %s\n", sess.CartTotal().StringFixed(2))
		case "checkout":
			order, err := sess.Checkout(ctx)
			if err != nil {
				report(out, err)
				continue
			}
			fmt.Fprintf(out, "order %s committed, total %s\n", order.ID, order.Total.StringFixed(2))
		case "orders":
			for _, order := range sess.OrderHistory() {
				fmt.Fprintf(out, "%s  %s  %8s  %s\n",
					order.ID, order.CreatedAt.Format("2006-01-02 15:04:05"), order.Total.StringFixed(2), order.Status)
			}
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q, type 'help'\n", fields[0])
		}
	}
}

func loginLoop(ctx context.Context, sess *session.Session, scanner *bufio.Scanner, out io.Writer) error {
	for {
		fmt.Fprint(out, "username: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		username := strings.TrimSpace(scanner.Text())

		fmt.Fprint(out, "password: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		secret := strings.TrimSpace(scanner.Text())

		err := sess.Login(ctx, session.Credentials{Username: username, Secret: secret})
		if err == nil {
			fmt.Fprintf(out, "welcome, %s\n", sess.CurrentUser())
			return nil
		}
		report(out, err)
		if pkgerrors.IsConnection(err) {
			// no point re-prompting while the server is unreachable
			return err
		}
	}
}

func parseIDQty(fields []string) (string, int, error) {
	if len(fields) < 3 {
		return "", 0, fmt.Errorf("usage: %s <id> <qty>", fields[0])
	}
	qty, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", 0, fmt.Errorf("quantity must be an integer: %w", err)
	}
	return fields[1], qty, nil
}

// report prints the operator-facing message for an error, falling back to
// the raw error for untyped failures.
func report(out io.Writer, err error) {
	if typed := pkgerrors.As(err); typed != nil {
		fmt.Fprintln(out, pkgerrors.MetadataFor(typed.Code()).PublicMessage)
		return
	}
	fmt.Fprintln(out, err)
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `commands:
  list [category]   fetch and show the catalog (categories: all, antibiotic, vitamin, cold-remedy, cardiovascular)
  add <id> <qty>    add quantity of a product to the cart
  set <id> <qty>    overwrite the cart quantity (0 removes)
  remove <id>       drop a product from the cart
  cart              show the cart and its total
  checkout          commit the cart as an order
  orders            show the order history
  quit              exit
`)
}
