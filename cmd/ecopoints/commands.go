package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecopoints-app/ecopoints/internal/api"
	"github.com/ecopoints-app/ecopoints/internal/app"
	"github.com/ecopoints-app/ecopoints/internal/rewards"
)

const commandTimeout = 30 * time.Second

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

func cmdLogin(a *app.App, args []string) error {
	var email string
	var err error
	if len(args) > 0 {
		email = args[0]
	} else {
		if email, err = prompt("Correo"); err != nil {
			return err
		}
	}
	password, err := prompt("Contraseña")
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()
	s, err := a.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("¡Hola, %s! Sesión iniciada.\n", s.DisplayName)
	return nil
}

func cmdRegister(a *app.App) error {
	name, err := prompt("Nombre")
	if err != nil {
		return err
	}
	email, err := prompt("Correo")
	if err != nil {
		return err
	}
	password, err := prompt("Contraseña")
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()
	msg, err := a.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	fmt.Println("Ahora puedes iniciar sesión con `ecopoints login`.")
	return nil
}

func cmdLogout(a *app.App) error {
	if err := a.Logout(); err != nil {
		return err
	}
	fmt.Println("Sesión cerrada.")
	return nil
}

func cmdWhoami(a *app.App) error {
	s, err := a.Current()
	if err != nil {
		if errors.Is(err, app.ErrNotLoggedIn) {
			return fmt.Errorf("no has iniciado sesión")
		}
		return err
	}
	fmt.Printf("%s <%s>\nID: %s\n", s.DisplayName, s.Email, s.UserID)
	return nil
}

func cmdBalance(a *app.App) error {
	ctx, cancel := commandContext()
	defer cancel()
	bal, err := a.RefreshBalance(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Tienes %s ecopoints\n", style.Accent(fmt.Sprintf("%d", bal.Points)))
	return nil
}

func cmdHistory(a *app.App) error {
	ctx, cancel := commandContext()
	defer cancel()
	txs, err := a.History(ctx)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("Aún no tienes movimientos.")
		return nil
	}
	for _, tx := range txs {
		sign := "+"
		if tx.Points < 0 {
			sign = ""
		}
		line := fmt.Sprintf("%s  %s%d  %s",
			tx.Date.Local().Format("2006-01-02 15:04"), sign, tx.Points, tx.Description)
		if tx.Location != "" {
			line += "  (" + tx.Location + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func cmdRewards(a *app.App, args []string) error {
	var category rewards.Category
	if len(args) > 0 {
		category = rewards.Category(args[0])
	}
	list := rewards.FilterByCategory(category)
	if len(list) == 0 {
		return fmt.Errorf("no hay recompensas en la categoría %q", category)
	}

	ctx, cancel := commandContext()
	defer cancel()
	bal, err := a.RefreshBalance(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Tienes %d ecopoints\n\n", bal.Points)
	for _, r := range list {
		mark := " "
		if bal.Points >= r.PointCost {
			mark = style.Accent("*")
		}
		fmt.Printf("%s %-8s %5d pts  %s - %s\n", mark, r.ID, r.PointCost, r.Brand, r.Name)
	}
	fmt.Println(style.Dim("\n* = disponible con tu saldo actual"))
	return nil
}

func cmdRedeem(a *app.App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: ecopoints redeem <reward-id>")
	}
	reward, err := rewards.Find(args[0])
	if err != nil {
		return fmt.Errorf("recompensa %q no encontrada", args[0])
	}

	ctx, cancel := commandContext()
	defer cancel()
	if _, err := a.RefreshBalance(ctx); err != nil {
		return err
	}

	flow := &rewards.Flow{
		Balance: func() int { return a.Balance().Points },
		OnRedeem: func(r rewards.Reward) {
			a.ApplyDelta(-r.PointCost)
		},
		OnNotice: func(msg string) { fmt.Println(msg) },
	}

	conf, err := flow.AttemptRedeem(reward)
	if err != nil {
		if errors.Is(err, rewards.ErrInsufficientPoints) {
			return nil // notice already printed
		}
		return err
	}

	fmt.Printf("%s - %s (%d pts)\nSaldo después del canje: %d ecopoints\n",
		conf.Reward.Brand, conf.Reward.Name, conf.Reward.PointCost, conf.ProjectedBalance)
	answer, err := prompt("¿Confirmar canje? (s/n)")
	if err != nil {
		return err
	}
	if answer != "s" && answer != "S" {
		conf.Cancel()
		fmt.Println("Canje cancelado.")
		return nil
	}
	conf.Confirm()
	fmt.Printf("Saldo estimado: %d ecopoints (pendiente de confirmación)\n", a.Balance().Points)
	return nil
}

func cmdResetPassword(a *app.App) error {
	email, err := prompt("Correo")
	if err != nil {
		return err
	}

	msg, err := doCall(func(ctx context.Context) (string, error) {
		return a.Client().RequestReset(ctx, email)
	})
	if err != nil {
		return err
	}
	fmt.Println(msg)

	code, err := prompt("Código de verificación")
	if err != nil {
		return err
	}
	ver, err := doCall(func(ctx context.Context) (*api.ResetVerification, error) {
		return a.Client().VerifyResetCode(ctx, email, code)
	})
	if err != nil {
		return err
	}

	password, err := prompt("Nueva contraseña")
	if err != nil {
		return err
	}
	msg, err = doCall(func(ctx context.Context) (string, error) {
		return a.Client().UpdatePassword(ctx, ver.UserID, ver.TempToken, password)
	})
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

// doCall runs one API call under its own timeout, so time spent at an input
// prompt never counts against the request.
func doCall[T any](call func(context.Context) (T, error)) (T, error) {
	ctx, cancel := commandContext()
	defer cancel()
	return call(ctx)
}
