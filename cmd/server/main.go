// @title        Loan CRM lead workflow API
// @version      1.0
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in           header
// @name         Authorization
package main

import "loancrm/internal/app"

func main() {
	app.Run()
}
