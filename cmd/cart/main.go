package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/DioGolang/GoTrack/configs"
	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/application/usecase/cart"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/internal/infra/storage"
	"github.com/DioGolang/GoTrack/pkg/logger"
)

const usage = `usage: cart <command> [flags]

commands:
  show
  add     --product ID --name NAME --price N --vendor ID --vendor-name NAME [--yes]
  qty     --product ID --quantity N
  remove  --product ID
  clear`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	cmd := os.Args[1]

	fs := pflag.NewFlagSet("cart "+cmd, pflag.ExitOnError)
	productID := fs.String("product", "", "product id")
	name := fs.String("name", "", "product name")
	price := fs.Float64("price", 0, "unit price")
	vendorID := fs.String("vendor", "", "vendor id")
	vendorName := fs.String("vendor-name", "", "vendor name")
	quantity := fs.Int("quantity", 1, "new quantity; zero or less removes the line")
	yes := fs.Bool("yes", false, "replace a cart from another vendor without asking")
	fs.String("cart-namespace", "", "storage namespace")
	fs.String("cart-dir", "", "directory of the file store")
	fs.String("cart-backend", "", "file or redis")
	_ = fs.Parse(os.Args[2:])

	config, err := configs.LoadConfig(".", fs)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	log := logger.NewLogger("gotrack-cart", config.IsProduction())

	store, closeStore, err := openStore(ctx, config)
	if err != nil {
		log.Error(ctx, "Cart store unavailable", logger.WithError(err))
		os.Exit(1)
	}
	defer closeStore()

	session := cart.NewSession(store, log)
	if err := session.Load(ctx); err != nil {
		log.Error(ctx, "Cart not loaded", logger.WithError(err))
		os.Exit(1)
	}

	switch cmd {
	case "show":
	case "add":
		p := entity.Product{ID: *productID, Name: *name, Price: *price}
		v := entity.Vendor{ID: *vendorID, Name: *vendorName}
		err = add(ctx, session, p, v, *yes)
	case "qty":
		err = session.UpdateQuantity(ctx, *productID, *quantity)
	case "remove":
		err = session.RemoveItem(ctx, *productID)
	case "clear":
		err = session.Clear(ctx)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	show(session)
}

func openStore(ctx context.Context, config *configs.Conf) (outbound.CartStore, func(), error) {
	switch config.CartBackend {
	case "redis":
		rdb, err := storage.NewRedisClient(ctx, config.RedisHost, config.RedisPort)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedisCartStore(rdb, config.CartNamespace), func() { _ = rdb.Close() }, nil
	case "", "file":
		s, err := storage.NewFileCartStore(config.CartDir, config.CartNamespace)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cart backend %q", config.CartBackend)
	}
}

// add asks before replacing a cart that holds another vendor's items.
func add(ctx context.Context, s *cart.Session, p entity.Product, v entity.Vendor, yes bool) error {
	err := s.AddItem(ctx, p, v)
	var conflict *cart.VendorConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	if !yes && !confirm(fmt.Sprintf("Your cart has items from %s. Replace them with %s? [y/N] ",
		conflict.Current.Name, conflict.Incoming.Name)) {
		return s.CancelReplace(conflict.Token)
	}
	return s.ConfirmReplace(ctx, conflict.Token)
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func show(s *cart.Session) {
	v, ok := s.Vendor()
	if !ok {
		fmt.Println("cart is empty")
		return
	}
	fmt.Printf("%s (%d items)\n", v.Name, s.ItemCount())
	for _, l := range s.Lines() {
		fmt.Printf("  %-24s %3d x %8.2f\n", l.Name, l.Quantity, l.Price)
	}
	fmt.Printf("total %.2f\n", s.Total())
}
