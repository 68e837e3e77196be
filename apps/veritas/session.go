package main

import (
	"context"
	"fmt"

	"github.com/trezcool/veritas/core/access"
	"github.com/trezcool/veritas/core/session"
)

func (cli *commandLine) login(ctx context.Context, correo, pwd string) error {
	req := session.LoginRequest{Correo: correo, Password: pwd}
	if err := req.Validate(cli.validate); err != nil {
		return err
	}

	resp, err := cli.store.Login(ctx, req.Correo, req.Password)
	if err != nil {
		return err
	}
	if resp.MustChangePassword() {
		fmt.Fprintln(cli.out, "Debe cambiar la contraseña temporal antes de continuar.")
		if err = cli.firstLogin(ctx, req.Correo, req.Password); err != nil {
			// a session still bound to the temporary password is of no use
			if lErr := cli.store.Logout(ctx); lErr != nil {
				cli.logger.Error("discarding temporary session", lErr)
				fmt.Fprintln(cli.out, "No se pudo descartar la sesión temporal, ejecute `veritas logout`.")
			}
			return err
		}
	}

	sess, _ := cli.store.Current()
	fmt.Fprintf(cli.out, "Bienvenido, %s\n", sess.DisplayName)
	return nil
}

func (cli *commandLine) firstLogin(ctx context.Context, correo, temporal string) error {
	nueva, err := cli.readPassword("Nueva contraseña:")
	if err != nil {
		return err
	}
	confirmacion, err := cli.readPassword("Confirme la contraseña:")
	if err != nil {
		return err
	}

	req := session.FirstLoginRequest{
		Correo:           correo,
		PasswordTemporal: temporal,
		NuevaPassword:    nueva,
		Confirmacion:     confirmacion,
	}
	if err = req.Validate(cli.validate); err != nil {
		return err
	}
	_, err = cli.store.FirstLogin(ctx, req)
	return err
}

func (cli *commandLine) logout(ctx context.Context) error {
	if !cli.store.IsAuthenticated() {
		return errNotLoggedIn
	}
	if err := cli.store.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Sesión cerrada")
	return nil
}

func (cli *commandLine) whoami() error {
	sess, ok := cli.store.Current()
	if !ok {
		return errNotLoggedIn
	}
	fmt.Fprintf(cli.out, "%s <%s>\n", sess.DisplayName, sess.Email)
	fmt.Fprintf(cli.out, "Rol: %s\n", sess.Role.Label())
	if sess.MustChangePassword {
		fmt.Fprintln(cli.out, "Debe cambiar su contraseña")
	}
	return nil
}

func (cli *commandLine) menu() error {
	sess, ok := cli.store.Current()
	if !ok {
		return errNotLoggedIn
	}
	fmt.Fprintf(cli.out, "Inicio: %s\n", access.Home(sess))
	for _, item := range access.MenuFor(sess.Role) {
		fmt.Fprintf(cli.out, "  %-16s %s\n", item.Label, item.Path)
	}
	return nil
}
