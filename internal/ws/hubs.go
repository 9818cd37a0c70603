package ws

type Hubs struct {
	Dashboard *DashboardHub
}

func NewHubs() *Hubs {
	return &Hubs{
		Dashboard: NewDashboardHub(),
	}
}
