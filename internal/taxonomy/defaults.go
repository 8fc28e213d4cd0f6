package taxonomy

// DefaultCategories returns the household's category tree in display order.
func DefaultCategories() []Category {
	return []Category{
		{Name: Utilities, Subcats: []string{"Luz", "Agua", "Gas", "Internet", "Telefonia"}, LifeExpense: true},
		{Name: Home, Subcats: []string{"Alquiler", "Hipoteca", "Mantenimiento", "Comunidad", "Hogar"}, LifeExpense: true},
		{Name: Transport, Subcats: []string{"Gasolina", "Parking", "Peajes", "Transporte publico", "Taxi"}, LifeExpense: true},
		{Name: Groceries, Subcats: []string{"Mercadona", "Lidl", "Carrefour", "Aldi", "Dia"}, LifeExpense: true},
		{Name: Leisure, Subcats: []string{"Restaurantes", "Viajes", "Eventos", "Regalos", "Hobbies"}},
		{Name: Subscriptions, Subcats: []string{"Spotify", "ChatGPT", "BasicFit", "Netflix", "Otros servicios"}},
		{Name: Health, Subcats: []string{"Farmacia", "Medico", "Seguro salud", "Gimnasio", "Cuidado personal"}, LifeExpense: true},
		{Name: Other, Subcats: []string{Uncategorized, "Imprevistos", "Varios"}, RequiresNote: true},
		{Name: Donations, Subcats: []string{"Iglesia", "ONG", "Ayuda familiar"}},
		{Name: Contributions, Subcats: []string{"Ahorro", "Inversion", "Fondo emergencia"}},
		{Name: Income, Subcats: []string{"Nomina", "Freelance", "Reembolso", "Venta", OtherIncome}},
	}
}

// Default returns a Taxonomy over DefaultCategories.
func Default() *Taxonomy {
	return New(DefaultCategories())
}
