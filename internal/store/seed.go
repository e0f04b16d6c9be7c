package store

import (
	"fmt"

	"github.com/Lrseward22/A3/internal/models"
)

// catalog is the fixed seed set. The shop sells exactly these five items.
var catalog = []models.Item{
	{
		Name:  "Normal Pocket Watch",
		Image: "watch.jpg",
		Price: 250.00,
		Description: "This is a totally normal pocket watch that only lets you travel time... " +
			"I mean tell time. Nothing other than telling time... except maybe for the occasional " +
			"glitch that sends you to different eras. But honestly, who needs reliable time-telling " +
			"anyway when you can accidentally end up in the Victorian era or the Jurassic period? " +
			"It's all fun and games until you realize your meeting starts in five minutes and you're " +
			"wearing a top hat and monocle.",
	},
	{
		Name:  "Normal Ice Cream Machine",
		Image: "ice_cream.jpg",
		Price: 120.00,
		Description: "This ice cream machine allows you to have ice cream of any flavor you desire. " +
			"It has all toppings you can think of. You, also, never have to do any maintanence. " +
			"Nothing special really... except maybe the fact that it conjures the creamiest, most " +
			"heavenly scoops with just a thought. Imagine a machine that reads your deepest dessert " +
			"dreams and manifests them instantly. And no maintenance? That's right, it's self-cleaning " +
			"and as if by magic, it never runs out of ingredients. It's like having your personal " +
			"Willy Wonka in your kitchen.",
	},
	{
		Name:  "Normal Cloak",
		Image: "cloak.jpg",
		Price: 10.00,
		Description: "Like all cloaks, it is super cool and makes you look cool. Or I suppose it makes " +
			"you look not at all since people cannot see you. Did I mention that? It makes you invisible. " +
			"Perfect for slipping out of boring meetings or sneaking into secret wizard gatherings. " +
			"But be careful not to get lost in your own invisibility-after all, with great power comes " +
			"great responsibility. We wouldn't want any illegal things happening. Whether you're avoiding " +
			"an awkward encounter or seeking a thrilling adventure, this cloak has got you covered... literally.",
	},
	{
		Name:  "Normal Helmet",
		Image: "helmet.jpg",
		Price: 75.00,
		Description: "This football helmet provides superb protection. Ironically, it also increases the " +
			"neural efficiency of the wearer. That's funny because football gives you concussions which " +
			"can lower brain function. Imagine a helmet that not only guards your noggin but also sharpens " +
			"it! While it keeps you safe from those brutal tackles, or whatever you need a helmet for these " +
			"days, it somehow also boosts your brainpower-turning you into a gridiron genius. But beware, " +
			"even a super-smart helmet can't stop you from forgetting where you left your keys after the " +
			"game. Ideal for the player who wants to outthink the competition, both on and off the field.",
	},
	{
		Name:  "Normal Wormhole Generator",
		Image: "generator.jpg",
		Price: 9999.99,
		Description: "This generator is a proprietary technology that creates wormholes. These incredibly " +
			"intricate machines allow you to travel long distances in just a few steps. User manual sold " +
			"seperately, but who needs instruction for interdimensional travel anyway? Just press the shiny " +
			"red button and hope for the best. Nothing bad has ever happened from shiny red buttons, right? " +
			"Whether you're late for a meeting on the other side of the planet or simply curious about " +
			"what's in your neighbor's fridge. This handy gadget has got you covered. Just remember to " +
			"close the wormhole behind you. You don't want any unexpected visitors from alternate realities " +
			"crashing your party. Unless you do for some reason. We don't judge, just take your money.",
	},
}

// SeedCatalog inserts any catalog item that is not already present, matched
// by name. Safe to run on every catalog view.
func (s *Store) SeedCatalog() error {
	for _, item := range catalog {
		existing, err := s.GetItemByName(item.Name)
		if err != nil {
			return fmt.Errorf("seed lookup for %q: %w", item.Name, err)
		}
		if existing != nil {
			continue
		}
		item := item
		if err := s.CreateItem(&item); err != nil {
			return fmt.Errorf("seed insert for %q: %w", item.Name, err)
		}
	}
	return nil
}
